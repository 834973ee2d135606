package types

import "github.com/google/uuid"

// Version is the application version reported by the CLI and the User-Agent header
const Version = "0.1.0"

// RunID identifies a single download run in logs
type RunID string

// NewRunID returns a new random RunID
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

func (x RunID) String() string { return string(x) }
