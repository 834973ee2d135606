package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/urfave/cli/v3"
)

// credentialParam matches URLs carrying secrets in their query string
var credentialParam = regexp.MustCompile(`(?i)[?&](access_token|token|api_key|apikey|key|sig|signature|password)=`)

// Logger holds logger configuration
type Logger struct {
	Level string
	JSON  bool
	File  string

	// Console receives human readable logs. os.Stderr is used when nil.
	Console io.Writer

	file *os.File
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("PAGEGRAB_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "Write the log file in JSON format",
			Value:       false,
			Destination: &c.JSON,
			Sources:     cli.EnvVars("PAGEGRAB_LOG_JSON"),
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "Path of the persistent log file, empty to disable",
			Value:       "pagegrab.log",
			Destination: &c.File,
			Sources:     cli.EnvVars("PAGEGRAB_LOG_FILE"),
		},
	}
}

// Configure configures and returns a logger writing to the console and,
// if File is set, appending to the log file
func (c *Logger) Configure() (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level", goerr.V("level", c.Level))
	}

	console := c.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := teeHandler{
		clog.New(
			clog.WithWriter(console),
			clog.WithLevel(level),
			clog.WithColor(true),
		),
	}

	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", c.File))
		}
		c.file = f

		opts := &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: masq.New(
				masq.WithRegex(credentialParam),
				masq.WithFieldName("Authorization"),
			),
		}

		if c.JSON {
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(f, opts))
		}
	}

	return slog.New(handlers), nil
}

// Close closes the log file opened by Configure
func (c *Logger) Close() error {
	if c.file == nil {
		return nil
	}
	f := c.file
	c.file = nil
	if err := f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close log file", goerr.V("path", c.File))
	}
	return nil
}

// teeHandler fans out records to every handler enabled for the level
type teeHandler []slog.Handler

func (h teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, x := range h {
		if x.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, x := range h {
		if !x.Enabled(ctx, r.Level) {
			continue
		}
		if err := x.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return goerr.Wrap(errs[0], "failed to handle log record", goerr.V("errors", len(errs)))
	}
	return nil
}

func (h teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(h))
	for i, x := range h {
		out[i] = x.WithAttrs(attrs)
	}
	return out
}

func (h teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(h))
	for i, x := range h {
		out[i] = x.WithGroup(name)
	}
	return out
}
