package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/domain/interfaces"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
	"github.com/m-mizutani/pagegrab/pkg/domain/types"
)

const defaultUserAgent = "pagegrab/" + types.Version

type client struct {
	httpClient *http.Client
	userAgent  string
}

// Option is a functional option for the HTTP fetcher
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(x *client) {
		x.httpClient = c
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(x *client) {
		x.userAgent = ua
	}
}

// New creates a new HTTP fetcher
func New(opts ...Option) interfaces.Fetcher {
	c := &client{
		httpClient: http.DefaultClient,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check performs a HEAD request against url within timeout. Servers that
// do not implement HEAD are probed with a GET whose body is discarded.
func (c *client) Check(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch {
	case isSuccess(resp.StatusCode):
		return nil
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		resp, err := c.do(ctx, http.MethodGet, url)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if !isSuccess(resp.StatusCode) {
			return statusError(resp, url)
		}
		return nil
	default:
		return statusError(resp, url)
	}
}

// Get performs a streamed GET request. The returned body must be closed;
// timeout covers reading the whole body.
func (c *client) Get(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)

	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		cancel()
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		resp.Body.Close()
		cancel()
		return nil, statusError(resp, url)
	}

	return &body{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (c *client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request",
			goerr.V("method", method), goerr.V("url", url))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request",
			goerr.V("method", method), goerr.V("url", url))
	}
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func statusError(resp *http.Response, url string) error {
	return goerr.Wrap(model.ErrUnexpectedStatus, resp.Status,
		goerr.V("method", resp.Request.Method),
		goerr.V("status", resp.StatusCode),
		goerr.V("url", url))
}

// body releases the request timeout when closed
type body struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *body) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
