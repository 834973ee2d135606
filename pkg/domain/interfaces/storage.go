package interfaces

import "io"

// Storage defines file operations under the output root
type Storage interface {
	// Put writes r to dir/name, replacing an existing file
	Put(dir, name string, r io.Reader) (string, int64, error)

	// Save writes r to a new file in dir named after name, appending a numeric
	// suffix when name is already taken. It never overwrites an existing file.
	Save(dir, name string, r io.Reader) (string, int64, error)
}
