package usecase

import (
	"context"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/domain/model"
	"github.com/m-mizutani/pagegrab/pkg/utils/urlx"
)

// ExtractResources parses html and returns the images, scripts and
// stylesheets it references, resolved against base, in document order.
// Tags without a usable attribute and references that cannot be resolved
// are skipped.
func ExtractResources(ctx context.Context, html io.Reader, base *url.URL) (iter.Seq[model.Resource], error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, goerr.Wrap(model.ErrParseHTML, "failed to parse HTML", goerr.V("error", err.Error()))
	}

	tags := doc.Find("img, script, link")

	return func(yield func(model.Resource) bool) {
		logger := ctxlog.From(ctx)

		for i := range tags.Length() {
			ref, category, ok := classify(tags.Eq(i))
			if !ok {
				continue
			}

			u, err := urlx.Resolve(base, ref)
			if err != nil {
				logger.Debug("Skip unresolvable reference", "ref", ref, "error", err)
				continue
			}

			if !yield(model.Resource{URL: u, Category: category}) {
				return
			}
		}
	}, nil
}

// classify returns the reference held by a qualifying tag
func classify(s *goquery.Selection) (string, model.Category, bool) {
	switch goquery.NodeName(s) {
	case "img":
		return attr(s, "src", model.CategoryImage)
	case "script":
		return attr(s, "src", model.CategoryScript)
	case "link":
		rel, _ := s.Attr("rel")
		if !isStylesheet(rel) {
			return "", 0, false
		}
		return attr(s, "href", model.CategoryStylesheet)
	default:
		return "", 0, false
	}
}

func attr(s *goquery.Selection, name string, category model.Category) (string, model.Category, bool) {
	v, ok := s.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", 0, false
	}
	return v, category, true
}

// isStylesheet reports whether rel is exactly the single value "stylesheet".
// "alternate stylesheet" and case variants do not match.
func isStylesheet(rel string) bool {
	values := strings.Fields(rel)
	return len(values) == 1 && values[0] == "stylesheet"
}
