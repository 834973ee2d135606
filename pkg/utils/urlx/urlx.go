// Package urlx resolves resource references against a page URL and derives
// safe local file names from resource URLs.
package urlx

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
)

// DefaultFileName is used when a URL has no usable last path segment
const DefaultFileName = "download"

// ParseTarget parses and validates the URL of the page to download
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidTarget, "failed to parse target URL",
			goerr.V("url", raw), goerr.V("error", err.Error()))
	}
	if !isFetchable(u) {
		return nil, goerr.Wrap(model.ErrInvalidTarget, "target URL must be absolute http(s) URL",
			goerr.V("url", raw))
	}
	return u, nil
}

// Resolve turns ref into an absolute URL relative to base. An already
// absolute ref is returned unchanged, fragment included. References that do not resolve to a
// http(s) URL return ErrUnresolvableRef.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, goerr.Wrap(model.ErrUnresolvableRef, "empty reference")
	}

	u, err := base.Parse(ref)
	if err != nil {
		return nil, goerr.Wrap(model.ErrUnresolvableRef, "failed to parse reference",
			goerr.V("ref", ref), goerr.V("error", err.Error()))
	}
	if !isFetchable(u) {
		return nil, goerr.Wrap(model.ErrUnresolvableRef, "reference is not a http(s) URL",
			goerr.V("ref", ref))
	}
	return u, nil
}

func isFetchable(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

// FileName derives a local file name from the last path segment of u.
// The result is never empty and never contains a path separator.
func FileName(u *url.URL) string {
	// u.Path is already percent-decoded and carries no query
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return DefaultFileName
	}
	name := path.Base(u.Path)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || strings.Trim(name, ".") == "" {
		return DefaultFileName
	}
	return name
}

// Disambiguate returns the n-th candidate for name: name itself for n == 0,
// otherwise name with "_n" inserted before the extension.
func Disambiguate(name string, n int) string {
	if n <= 0 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfile such as ".htaccess"
		stem, ext = name, ""
	}
	return stem + "_" + strconv.Itoa(n) + ext
}
