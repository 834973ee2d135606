package model

import "sync/atomic"

// Progress tracks completion of resource downloads within one run.
// It is safe for concurrent use.
type Progress struct {
	total     int64
	completed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of Progress
type ProgressSnapshot struct {
	Completed int
	Succeeded int
	Failed    int
	Total     int
}

// NewProgress creates a Progress for total jobs
func NewProgress(total int) *Progress {
	return &Progress{total: int64(total)}
}

// Add records a finished job and returns the updated snapshot
func (p *Progress) Add(result *Result) ProgressSnapshot {
	if result.Success {
		p.succeeded.Add(1)
	} else {
		p.failed.Add(1)
	}
	p.completed.Add(1)
	return p.Snapshot()
}

// Snapshot returns current counters
func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Completed: int(p.completed.Load()),
		Succeeded: int(p.succeeded.Load()),
		Failed:    int(p.failed.Load()),
		Total:     int(p.total),
	}
}

// Done reports whether all jobs have completed
func (s ProgressSnapshot) Done() bool {
	return s.Completed >= s.Total
}
