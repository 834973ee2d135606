package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/pagegrab/pkg/cli/config"
	"github.com/m-mizutani/pagegrab/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	return newApp(os.Stdout, os.Stderr).Run(ctx, args)
}

type app struct {
	stdout  io.Writer
	console io.Writer

	loggerCfg   config.Logger
	downloadCfg config.Download
	sentryCfg   config.Sentry
}

func newApp(stdout, console io.Writer) *app {
	return &app{stdout: stdout, console: console}
}

func (x *app) Run(ctx context.Context, args []string) error {
	var logger *slog.Logger
	flushSentry := func() {}

	x.loggerCfg.Console = x.console

	var flags []cli.Flag
	flags = append(flags, x.downloadCfg.Flags()...)
	flags = append(flags, x.loggerCfg.Flags()...)
	flags = append(flags, x.sentryCfg.Flags()...)

	cmd := &cli.Command{
		Name:      "pagegrab",
		Usage:     "Download a web page with its images, scripts and stylesheets",
		ArgsUsage: "<url>",
		Version:   types.Version,
		Writer:    x.stdout,
		Flags:     flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = x.loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			flushSentry, err = x.sentryCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Action: x.download,
	}

	err := cmd.Run(ctx, args)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentry.CaptureException(err)
	}

	flushSentry()
	if closeErr := x.loggerCfg.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
