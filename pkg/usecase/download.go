package usecase

import (
	"context"
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/domain/interfaces"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
	"github.com/m-mizutani/pagegrab/pkg/domain/types"
	"github.com/m-mizutani/pagegrab/pkg/utils/async"
	"github.com/m-mizutani/pagegrab/pkg/utils/urlx"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Default settings of the download use case
const (
	DefaultWorkers         = 4
	DefaultLivenessTimeout = 10 * time.Second
	DefaultPageTimeout     = 60 * time.Second
	DefaultResourceTimeout = 30 * time.Second
	DefaultReportInterval  = time.Second
)

// ProgressFunc receives progress after each resource download. It is never
// called concurrently.
type ProgressFunc func(model.ProgressSnapshot)

type downloadConfig struct {
	workers         int
	livenessTimeout time.Duration
	pageTimeout     time.Duration
	resourceTimeout time.Duration
	reportInterval  time.Duration
	onProgress      ProgressFunc
}

// DownloadOption is a functional option for the download use case
type DownloadOption func(*downloadConfig)

// WithWorkers sets the maximum number of concurrent resource downloads
func WithWorkers(n int) DownloadOption {
	return func(c *downloadConfig) {
		c.workers = max(n, 1)
	}
}

// WithLivenessTimeout sets the timeout of the target liveness check
func WithLivenessTimeout(d time.Duration) DownloadOption {
	return func(c *downloadConfig) {
		c.livenessTimeout = d
	}
}

// WithPageTimeout sets the timeout of the page download
func WithPageTimeout(d time.Duration) DownloadOption {
	return func(c *downloadConfig) {
		c.pageTimeout = d
	}
}

// WithResourceTimeout sets the timeout of each resource download
func WithResourceTimeout(d time.Duration) DownloadOption {
	return func(c *downloadConfig) {
		c.resourceTimeout = d
	}
}

// WithReportInterval sets the interval of progress log records. Zero disables them.
func WithReportInterval(d time.Duration) DownloadOption {
	return func(c *downloadConfig) {
		c.reportInterval = d
	}
}

// WithProgress sets a callback receiving progress updates
func WithProgress(fn ProgressFunc) DownloadOption {
	return func(c *downloadConfig) {
		c.onProgress = fn
	}
}

type downloadUseCase struct {
	fetcher interfaces.Fetcher
	storage interfaces.Storage
	cfg     downloadConfig
}

// NewDownload creates a new instance of DownloadUseCase
func NewDownload(fetcher interfaces.Fetcher, storage interfaces.Storage, opts ...DownloadOption) interfaces.DownloadUseCase {
	cfg := downloadConfig{
		workers:         DefaultWorkers,
		livenessTimeout: DefaultLivenessTimeout,
		pageTimeout:     DefaultPageTimeout,
		resourceTimeout: DefaultResourceTimeout,
		reportInterval:  DefaultReportInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &downloadUseCase{
		fetcher: fetcher,
		storage: storage,
		cfg:     cfg,
	}
}

// Run downloads the page at target, saves it as html/index.html and then
// downloads every referenced image, script and stylesheet into its category
// folder. Failures of single resources are recorded in the summary and do
// not fail the run.
func (uc *downloadUseCase) Run(ctx context.Context, target string) (*model.Summary, error) {
	started := time.Now()
	runID := types.NewRunID()
	logger := ctxlog.From(ctx).With("run_id", runID.String())
	ctx = ctxlog.With(ctx, logger)

	base, err := urlx.ParseTarget(target)
	if err != nil {
		return nil, err
	}

	logger.Info("Checking target", "url", base.String())
	if err := uc.fetcher.Check(ctx, base.String(), uc.cfg.livenessTimeout); err != nil {
		return nil, goerr.Wrap(model.ErrTargetUnreachable, "liveness check failed",
			goerr.V("url", base.String()), goerr.V("error", err))
	}

	htmlPath, err := uc.savePage(ctx, base)
	if err != nil {
		return nil, err
	}

	resources, err := uc.extract(ctx, htmlPath, base)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{
		RunID:     runID.String(),
		TargetURL: base.String(),
		HTMLPath:  htmlPath,
		Total:     len(resources),
	}

	logger.Info("Dispatching resource downloads",
		"resources", len(resources),
		"workers", uc.cfg.workers,
	)
	uc.dispatch(ctx, resources, summary)
	summary.Elapsed = time.Since(started)

	logger.Info("Download completed",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return summary, goerr.Wrap(err, "download cancelled",
			goerr.V("completed", summary.Succeeded+summary.Failed),
			goerr.V("total", summary.Total))
	}
	return summary, nil
}

// savePage downloads the page and persists it under the HTML folder
func (uc *downloadUseCase) savePage(ctx context.Context, base *url.URL) (string, error) {
	body, err := uc.fetcher.Get(ctx, base.String(), uc.cfg.pageTimeout)
	if err != nil {
		return "", goerr.Wrap(model.ErrPageFetch, "GET page failed",
			goerr.V("url", base.String()), goerr.V("error", err))
	}
	defer body.Close()

	path, size, err := uc.storage.Put(model.HTMLDir, model.HTMLFileName, body)
	if err != nil {
		return "", goerr.Wrap(model.ErrPersistHTML, "failed to save page",
			goerr.V("url", base.String()), goerr.V("error", err))
	}

	ctxlog.From(ctx).Info("Saved page", "path", path, "size_bytes", size)
	return path, nil
}

// extract reads the saved page and collects its resources
func (uc *downloadUseCase) extract(ctx context.Context, htmlPath string, base *url.URL) ([]model.Resource, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, goerr.Wrap(model.ErrPersistHTML, "failed to open saved page",
			goerr.V("path", htmlPath), goerr.V("error", err))
	}
	defer f.Close()

	seq, err := ExtractResources(ctx, f, base)
	if err != nil {
		return nil, err
	}

	var resources []model.Resource
	for res := range seq {
		resources = append(resources, res)
	}
	return resources, nil
}

// dispatch downloads resources on a bounded pool. Workers hand their
// results to a single collector which owns the summary.
func (uc *downloadUseCase) dispatch(ctx context.Context, resources []model.Resource, summary *model.Summary) {
	logger := ctxlog.From(ctx)
	progress := model.NewProgress(len(resources))

	results := make(chan *model.Result, uc.cfg.workers)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range results {
			snapshot := progress.Add(result)
			summary.Results = append(summary.Results, result)
			if result.Success {
				summary.Succeeded++
			} else {
				summary.Failed++
			}

			logResult(ctx, result)
			if uc.cfg.onProgress != nil {
				uc.cfg.onProgress(snapshot)
			}
		}
	}()

	stopReport := async.Every(ctx, uc.cfg.reportInterval, func(ctx context.Context) {
		s := progress.Snapshot()
		logger.Info("Download progress",
			"completed", s.Completed,
			"total", s.Total,
			"failed", s.Failed,
		)
	})

	p := pool.New().WithMaxGoroutines(uc.cfg.workers)
	for _, res := range resources {
		p.Go(func() {
			results <- uc.runJob(ctx, res)
		})
	}
	p.Wait()

	close(results)
	<-collected
	stopReport()
}

// runJob downloads one resource. It never panics and never returns an
// error; failures are recorded in the result.
func (uc *downloadUseCase) runJob(ctx context.Context, res model.Resource) *model.Result {
	started := time.Now()
	result := &model.Result{
		Job: model.Job{
			URL: res.URL.String(),
			Dir: res.Category.Dir(),
		},
		Category: res.Category,
	}

	if err := ctx.Err(); err != nil {
		result.Err = goerr.Wrap(err, "job discarded", goerr.V("url", result.Job.URL))
		return result
	}

	var (
		path string
		size int64
		err  error
	)
	recovered := panics.Try(func() {
		path, size, err = uc.download(ctx, result.Job, urlx.FileName(res.URL))
	})
	if recovered != nil {
		err = goerr.Wrap(recovered.AsError(), "panic in download job", goerr.V("url", result.Job.URL))
	}

	result.Duration = time.Since(started)
	if err != nil {
		result.Err = err
		return result
	}

	result.Success = true
	result.SavedPath = path
	result.Bytes = size
	return result
}

func (uc *downloadUseCase) download(ctx context.Context, job model.Job, name string) (string, int64, error) {
	body, err := uc.fetcher.Get(ctx, job.URL, uc.cfg.resourceTimeout)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	return uc.storage.Save(job.Dir, name, body)
}

func logResult(ctx context.Context, result *model.Result) {
	logger := ctxlog.From(ctx)

	switch {
	case result.Success:
		logger.Info("Downloaded resource",
			"url", result.Job.URL,
			"category", result.Category.String(),
			"path", result.SavedPath,
			"size_bytes", result.Bytes,
			"duration", result.Duration,
		)
	case errors.Is(result.Err, model.ErrUnexpectedStatus):
		logger.Warn("Failed to download resource",
			"url", result.Job.URL,
			"category", result.Category.String(),
			"error", result.Err,
		)
	default:
		logger.Error("Failed to download resource",
			"url", result.Job.URL,
			"category", result.Category.String(),
			"error", result.Err,
		)
	}
}
