package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/usecase"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Download holds download configuration
type Download struct {
	Output          string
	Workers         int
	LivenessTimeout time.Duration
	PageTimeout     time.Duration
	ResourceTimeout time.Duration
	ConfigFile      string
}

// downloadFile is the TOML representation of Download
type downloadFile struct {
	Output          *string `toml:"output"`
	Workers         *int    `toml:"workers"`
	LivenessTimeout *string `toml:"liveness_timeout"`
	PageTimeout     *string `toml:"page_timeout"`
	ResourceTimeout *string `toml:"resource_timeout"`
}

// Flags returns CLI flags for download configuration
func (c *Download) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Root folder for all output",
			Value:       "downloaded_files",
			Destination: &c.Output,
			Sources:     cli.EnvVars("PAGEGRAB_OUTPUT"),
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "Number of concurrent resource downloads",
			Value:       usecase.DefaultWorkers,
			Destination: &c.Workers,
			Sources:     cli.EnvVars("PAGEGRAB_WORKERS"),
		},
		&cli.DurationFlag{
			Name:        "liveness-timeout",
			Usage:       "Timeout of the target liveness check (HEAD)",
			Value:       usecase.DefaultLivenessTimeout,
			Destination: &c.LivenessTimeout,
			Sources:     cli.EnvVars("PAGEGRAB_LIVENESS_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "page-timeout",
			Usage:       "Timeout of the page download",
			Value:       usecase.DefaultPageTimeout,
			Destination: &c.PageTimeout,
			Sources:     cli.EnvVars("PAGEGRAB_PAGE_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "resource-timeout",
			Usage:       "Timeout of each resource download",
			Value:       usecase.DefaultResourceTimeout,
			Destination: &c.ResourceTimeout,
			Sources:     cli.EnvVars("PAGEGRAB_RESOURCE_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "TOML file with download settings, overridden by flags",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("PAGEGRAB_CONFIG"),
		},
	}
}

// LoadFile reads ConfigFile, if any, and applies its values to settings for
// which isSet reports false
func (c *Download) LoadFile(isSet func(name string) bool) error {
	if c.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.ConfigFile))
	}

	var file downloadFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.ConfigFile))
	}

	if file.Output != nil && !isSet("output") {
		c.Output = *file.Output
	}
	if file.Workers != nil && !isSet("workers") {
		c.Workers = *file.Workers
	}

	durations := []struct {
		flag  string
		value *string
		dst   *time.Duration
	}{
		{"liveness-timeout", file.LivenessTimeout, &c.LivenessTimeout},
		{"page-timeout", file.PageTimeout, &c.PageTimeout},
		{"resource-timeout", file.ResourceTimeout, &c.ResourceTimeout},
	}
	for _, d := range durations {
		if d.value == nil || isSet(d.flag) {
			continue
		}
		v, err := time.ParseDuration(*d.value)
		if err != nil {
			return goerr.Wrap(err, "invalid duration in config file",
				goerr.V("path", c.ConfigFile), goerr.V("key", d.flag), goerr.V("value", *d.value))
		}
		*d.dst = v
	}

	return nil
}

// Validate checks the configuration
func (c *Download) Validate() error {
	if c.Output == "" {
		return goerr.New("output folder must not be empty")
	}
	if c.Workers < 1 {
		return goerr.New("workers must be positive", goerr.V("workers", c.Workers))
	}
	for name, d := range map[string]time.Duration{
		"liveness-timeout": c.LivenessTimeout,
		"page-timeout":     c.PageTimeout,
		"resource-timeout": c.ResourceTimeout,
	} {
		if d <= 0 {
			return goerr.New("timeout must be positive", goerr.V("name", name), goerr.V("value", d))
		}
	}
	return nil
}

// Options returns download use case options from the configuration
func (c *Download) Options() []usecase.DownloadOption {
	return []usecase.DownloadOption{
		usecase.WithWorkers(c.Workers),
		usecase.WithLivenessTimeout(c.LivenessTimeout),
		usecase.WithPageTimeout(c.PageTimeout),
		usecase.WithResourceTimeout(c.ResourceTimeout),
	}
}
