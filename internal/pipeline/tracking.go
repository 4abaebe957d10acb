package pipeline

import (
	"sync"
	"time"

	"go-data-prep/internal/model"
)

// Tracker accumulates job outcomes for a single run.
type Tracker struct {
	mu     sync.RWMutex
	result model.RunResult
}

// NewTracker starts tracking a run.
func NewTracker(runID string) *Tracker {
	return &Tracker{
		result: model.RunResult{
			ID:        runID,
			Status:    model.StatusRunning,
			StartTime: time.Now(),
			Jobs:      make([]model.JobResult, 0),
		},
	}
}

// AddJob records a finished job.
func (t *Tracker) AddJob(jr model.JobResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result.Jobs = append(t.result.Jobs, jr)
}

// Complete marks the run as successful.
func (t *Tracker) Complete() {
	t.finish(model.StatusCompleted, nil)
}

// Fail marks the run as failed with err.
func (t *Tracker) Fail(err error) {
	t.finish(model.StatusFailed, err)
}

func (t *Tracker) finish(status string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result.Status = status
	t.result.EndTime = time.Now()
	if err != nil {
		t.result.Error = err.Error()
	}
}

// Result returns a snapshot of the run.
func (t *Tracker) Result() model.RunResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snapshot := t.result
	snapshot.Jobs = append([]model.JobResult(nil), t.result.Jobs...)
	return snapshot
}

// Totals sums rows and skipped lines over the recorded jobs.
func (t *Tracker) Totals() (rows, skipped int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, jr := range t.result.Jobs {
		rows += jr.RowsWritten
		skipped += jr.Skipped
	}
	return rows, skipped
}
