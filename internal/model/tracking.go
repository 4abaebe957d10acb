package model

import "time"

// Run and job statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// JobResult is the outcome of one conversion.
type JobResult struct {
	Job         string        `json:"job"`
	Source      string        `json:"source"`
	Dest        string        `json:"dest"`
	Status      string        `json:"status"`
	LinesRead   int64         `json:"lines_read"`
	RowsWritten int64         `json:"rows_written"` // data rows, header excluded
	Skipped     int64         `json:"skipped"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunResult is the outcome of a run over a list of jobs.
type RunResult struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Jobs      []JobResult `json:"jobs"`
	Error     string      `json:"error,omitempty"`
}
