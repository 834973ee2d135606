package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
	"github.com/m-mizutani/pagegrab/pkg/infra/fetcher"
	"github.com/m-mizutani/pagegrab/pkg/infra/storage"
	"github.com/m-mizutani/pagegrab/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func (x *app) download(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 1 {
		return goerr.New("exactly one target URL is required", goerr.V("args", c.Args().Slice()))
	}
	target := c.Args().First()

	if err := x.downloadCfg.LoadFile(c.IsSet); err != nil {
		return err
	}
	if err := x.downloadCfg.Validate(); err != nil {
		return err
	}

	logger := ctxlog.From(ctx)
	logger.Info("Starting download",
		"url", target,
		"output", x.downloadCfg.Output,
		"workers", x.downloadCfg.Workers,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc := usecase.NewDownload(
		fetcher.New(),
		storage.New(x.downloadCfg.Output),
		x.downloadCfg.Options()...,
	)

	summary, err := uc.Run(ctx, target)
	if summary != nil {
		printSummary(x.stdout, summary)
	}
	if err != nil {
		return goerr.Wrap(err, "download failed", goerr.V("url", target))
	}

	return nil
}

// printSummary writes the final tally of a run
func printSummary(w io.Writer, s *model.Summary) {
	fmt.Fprintf(w, "Saved page: %s\n", s.HTMLPath)
	fmt.Fprintf(w, "Resources: %d attempted, %s, %s in %s\n",
		s.Total,
		color.GreenString("%d saved", s.Succeeded),
		failedColor(s.Failed).Sprintf("%d failed", s.Failed),
		s.Elapsed.Round(time.Millisecond),
	)

	for _, r := range s.Failures() {
		fmt.Fprintf(w, "  %s [%s] %s: %v\n", color.RedString("failed"), r.Category, r.Job.URL, r.Err)
	}
}

func failedColor(n int) *color.Color {
	if n > 0 {
		return color.New(color.FgRed)
	}
	return color.New(color.Reset)
}
