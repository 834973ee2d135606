package interfaces

import (
	"context"
	"io"
	"time"
)

// Fetcher defines HTTP operations used by the downloader
type Fetcher interface {
	// Check probes that url is reachable (liveness check)
	Check(ctx context.Context, url string, timeout time.Duration) error

	// Get starts a streamed GET request. Non-2xx status is an error.
	Get(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error)
}
