package history

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one row of the export history.
type Run struct {
	ID              string
	ProjectPath     string
	OutputPath      string
	Status          Status
	ClipCount       int
	ErrorKind       string
	ErrorMessage    string
	SizeBytes       int64
	DurationSeconds float64
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Elapsed is the wall-clock time of a finished run; zero while running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields written when a run finishes.
type Outcome struct {
	Status          Status
	ErrorKind       string
	ErrorMessage    string
	SizeBytes       int64
	DurationSeconds float64
}
