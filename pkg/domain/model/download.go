package model

import "time"

// HTMLDir and HTMLFileName locate the saved page under the output root
const (
	HTMLDir      = "html"
	HTMLFileName = "index.html"
)

// Job is a single unit of download work
type Job struct {
	URL string // Absolute URL to fetch
	Dir string // Destination folder relative to the output root
}

// Result represents the outcome of a single resource download
type Result struct {
	Job       Job
	Category  Category
	Success   bool
	SavedPath string        // Path of the saved file, empty on failure
	Bytes     int64         // Number of bytes written
	Duration  time.Duration // Time spent on the job
	Err       error         // Cause of the failure, nil on success
}

// Summary represents the outcome of a whole download run
type Summary struct {
	RunID     string
	TargetURL string
	HTMLPath  string    // Path of the saved page
	Total     int       // Number of dispatched resource jobs
	Succeeded int       // Number of saved resources
	Failed    int       // Number of failed resources
	Results   []*Result // Results in completion order
	Elapsed   time.Duration
}

// Failures returns results of failed jobs
func (s *Summary) Failures() []*Result {
	var failed []*Result
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
