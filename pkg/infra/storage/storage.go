package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagegrab/pkg/utils/urlx"
)

// maxCandidates bounds the search for a free file name in one folder
const maxCandidates = 100000

// Storage writes downloaded files under a root folder. File name claims are
// serialized per folder so concurrent writers never pick the same path.
type Storage struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Storage rooted at root. The root is created lazily.
func New(root string) *Storage {
	return &Storage{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// Root returns the output root folder
func (s *Storage) Root() string { return s.root }

// Put writes r to dir/name, replacing an existing file
func (s *Storage) Put(dir, name string, r io.Reader) (string, int64, error) {
	destDir, err := s.mkdir(dir)
	if err != nil {
		return "", 0, err
	}
	destPath, err := within(destDir, name)
	if err != nil {
		return "", 0, err
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to create file", goerr.V("path", destPath))
	}

	n, err := write(f, r)
	if err != nil {
		return "", 0, err
	}
	return destPath, n, nil
}

// Save writes r to a new file in dir. If name is taken, name_1, name_2, ...
// are tried in order. An existing file is never overwritten and nothing is
// left behind when writing fails.
func (s *Storage) Save(dir, name string, r io.Reader) (string, int64, error) {
	f, err := s.claim(dir, name)
	if err != nil {
		return "", 0, err
	}

	n, err := write(f, r)
	if err != nil {
		return "", 0, err
	}
	return f.Name(), n, nil
}

// claim creates the first free candidate file for name in dir
func (s *Storage) claim(dir, name string) (*os.File, error) {
	lock := s.lock(dir)
	lock.Lock()
	defer lock.Unlock()

	destDir, err := s.mkdir(dir)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxCandidates; i++ {
		destPath, err := within(destDir, urlx.Disambiguate(name, i))
		if err != nil {
			return nil, err
		}

		f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		switch {
		case err == nil:
			return f, nil
		case errors.Is(err, fs.ErrExist):
			continue
		default:
			return nil, goerr.Wrap(err, "failed to create file", goerr.V("path", destPath))
		}
	}

	return nil, goerr.New("no free file name", goerr.V("dir", destDir), goerr.V("name", name))
}

func (s *Storage) lock(dir string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := filepath.Clean(dir)
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

func (s *Storage) mkdir(dir string) (string, error) {
	destDir, err := within(s.root, dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create directory", goerr.V("dir", destDir))
	}
	return destDir, nil
}

// within joins name to base and rejects results escaping base
func within(base, name string) (string, error) {
	dest := filepath.Join(base, name)
	rel, err := filepath.Rel(base, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", goerr.New("invalid file path detected", goerr.V("base", base), goerr.V("name", name))
	}
	return dest, nil
}

// write copies r into f and closes it. The file is removed on failure.
func write(f *os.File, r io.Reader) (int64, error) {
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return 0, goerr.Wrap(err, "failed to write file", goerr.V("path", f.Name()))
	}
	return n, nil
}
