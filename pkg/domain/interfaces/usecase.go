package interfaces

import (
	"context"

	"github.com/m-mizutani/pagegrab/pkg/domain/model"
)

// DownloadUseCase defines the page download operation
type DownloadUseCase interface {
	// Run downloads the page at target and every resource it references
	Run(ctx context.Context, target string) (*model.Summary, error)
}
