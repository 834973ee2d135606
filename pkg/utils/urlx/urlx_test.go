package urlx_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
	"github.com/m-mizutani/pagegrab/pkg/utils/urlx"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	gt.NoError(t, err)
	return u
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "https URL", raw: "https://example.com/index.html"},
		{name: "http URL with port", raw: "http://localhost:8080/"},
		{name: "surrounding spaces", raw: "  https://example.com  "},
		{name: "relative path", raw: "/index.html", wantErr: true},
		{name: "no scheme", raw: "example.com/index.html", wantErr: true},
		{name: "ftp scheme", raw: "ftp://example.com/file", wantErr: true},
		{name: "broken escape", raw: "https://example.com/%zz", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := urlx.ParseTarget(tt.raw)
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, errors.Is(err, model.ErrInvalidTarget))
				return
			}
			gt.NoError(t, err)
			gt.Value(t, u).NotNil()
		})
	}
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://example.com/blog/post/index.html")

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "relative file", ref: "logo.png", want: "https://example.com/blog/post/logo.png"},
		{name: "parent directory", ref: "../css/site.css", want: "https://example.com/blog/css/site.css"},
		{name: "root relative", ref: "/static/app.js", want: "https://example.com/static/app.js"},
		{name: "protocol relative", ref: "//cdn.example.net/lib.js", want: "https://cdn.example.net/lib.js"},
		{name: "absolute other host", ref: "http://other.example.org/a.png", want: "http://other.example.org/a.png"},
		{name: "query kept", ref: "img.png?v=3", want: "https://example.com/blog/post/img.png?v=3"},
		{name: "whitespace trimmed", ref: "  img.png\n", want: "https://example.com/blog/post/img.png"},
		{name: "data URI", ref: "data:image/png;base64,AAAA", wantErr: true},
		{name: "javascript URI", ref: "javascript:void(0)", wantErr: true},
		{name: "empty", ref: "", wantErr: true},
		{name: "malformed", ref: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := urlx.Resolve(base, tt.ref)
			if tt.wantErr {
				gt.True(t, errors.Is(err, model.ErrUnresolvableRef))
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got.String()).Equal(tt.want)
		})
	}
}

func TestResolve_AbsoluteIsIdempotent(t *testing.T) {
	bases := []string{
		"https://example.com/",
		"http://localhost:8080/a/b/c.html",
		"https://example.org/deep/path/?q=1",
	}
	refs := []string{
		"https://example.com/a.png",
		"http://cdn.example.net/js/app.min.js?v=1.2.3",
		"https://example.org/img/a%20b.png",
		"https://example.org/page#section",
		"http://127.0.0.1:9000/",
	}

	for _, b := range bases {
		base := mustParse(t, b)
		for _, ref := range refs {
			got, err := urlx.Resolve(base, ref)
			gt.NoError(t, err)
			gt.Value(t, got.String()).Equal(ref)

			again, err := urlx.Resolve(base, got.String())
			gt.NoError(t, err)
			gt.Value(t, again.String()).Equal(ref)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain file", raw: "https://example.com/img/logo.png", want: "logo.png"},
		{name: "query stripped", raw: "https://example.com/app.js?v=123", want: "app.js"},
		{name: "percent decoded", raw: "https://example.com/img/my%20photo.jpg", want: "my photo.jpg"},
		{name: "trailing slash", raw: "https://example.com/img/", want: urlx.DefaultFileName},
		{name: "no path", raw: "https://example.com", want: urlx.DefaultFileName},
		{name: "root path", raw: "https://example.com/?a=b", want: urlx.DefaultFileName},
		{name: "encoded slash", raw: "https://example.com/a%2F..%2F..%2Fetc%2Fpasswd", want: "passwd"},
		{name: "dot dot segment", raw: "https://example.com/a/..", want: urlx.DefaultFileName},
		{name: "backslash", raw: "https://example.com/a%5C..%5Cb.png", want: "a..b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, urlx.FileName(mustParse(t, tt.raw))).Equal(tt.want)
		})
	}
}

func TestFileName_NeverTraverses(t *testing.T) {
	raws := []string{
		"https://example.com/",
		"https://example.com/..",
		"https://example.com/%2E%2E",
		"https://example.com/%2E%2E%2F%2E%2E%2F",
		"https://example.com/x/%2E",
		"https://example.com/%00",
		"https://example.com/%5C%5C",
		"https://example.com/...",
		"https://example.com/a/b/c/../../d.css",
		"https://example.com/%2Fabs%2Fpath.js",
	}

	for _, raw := range raws {
		name := urlx.FileName(mustParse(t, raw))
		gt.Value(t, name).NotEqual("")
		gt.Value(t, name).NotEqual(".")
		gt.Value(t, name).NotEqual("..")
		gt.False(t, strings.ContainsAny(name, "/\\\x00"))
	}
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "first candidate", in: "logo.png", n: 0, want: "logo.png"},
		{name: "second candidate", in: "logo.png", n: 1, want: "logo_1.png"},
		{name: "tenth candidate", in: "logo.png", n: 10, want: "logo_10.png"},
		{name: "no extension", in: "download", n: 2, want: "download_2"},
		{name: "double extension", in: "lib.min.js", n: 1, want: "lib.min_1.js"},
		{name: "dotfile", in: ".htaccess", n: 1, want: ".htaccess_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, urlx.Disambiguate(tt.in, tt.n)).Equal(tt.want)
		})
	}
}
