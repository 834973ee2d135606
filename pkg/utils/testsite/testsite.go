// Package testsite provides an in-process web site serving a page and its
// resources for tests.
package testsite

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Site is a test HTTP server. Routes can be added before requests are made.
type Site struct {
	*httptest.Server
	router chi.Router

	mu   sync.Mutex
	hits map[string]int
}

// New starts a Site which is closed when the test finishes
func New(t testing.TB) *Site {
	t.Helper()

	s := &Site{
		router: chi.NewRouter(),
		hits:   make(map[string]int),
	}
	s.router.Use(s.countHits)
	s.router.Use(middleware.GetHead)

	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

func (s *Site) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Page serves html at path
func (s *Site) Page(path, html string) {
	s.File(path, "text/html; charset=utf-8", html)
}

// File serves body with contentType at path
func (s *Site) File(path, contentType, body string) {
	s.router.Get(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

// Status answers every request to path with code
func (s *Site) Status(path string, code int) {
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

// Handle registers h for every method at path
func (s *Site) Handle(path string, h http.HandlerFunc) {
	s.router.HandleFunc(path, h)
}

// URL returns the absolute URL of path on the site
func (s *Site) URL(path string) string {
	return s.Server.URL + path
}

// Hits returns the number of requests made with method to path
func (s *Site) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}
