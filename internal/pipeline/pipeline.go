package pipeline

import (
	"context"
	"time"

	"go-data-prep/internal/logger"
	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists run history. Recorder failures are logged and never
// fail a run.
type Recorder interface {
	StartRun(ctx context.Context, run model.RunResult) error
	RecordJob(ctx context.Context, runID string, job model.JobResult) error
	FinishRun(ctx context.Context, run model.RunResult) error
}

type runOptions struct {
	log      *zap.SugaredLogger
	recorder Recorder
	runID    string
}

// Option customises Run.
type Option func(*runOptions)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *runOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRecorder stores the run and its jobs as they finish.
func WithRecorder(r Recorder) Option {
	return func(o *runOptions) { o.recorder = r }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(o *runOptions) { o.runID = id }
}

// ------------------- Pipeline Runner -------------------

// Run executes cfg.Jobs one after another in declaration order. The first
// failing job stops the run and its error is returned; the RunResult still
// lists every job attempted so far.
func Run(ctx context.Context, cfg model.RunConfig, opts ...Option) (model.RunResult, error) {
	o := runOptions{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.New().String()
	}
	log := o.log.With("run", o.runID)

	start := time.Now()
	tracker := NewTracker(o.runID)
	log.Infow("Starting run", "jobs", len(cfg.Jobs), "strict", cfg.Strict)

	if o.recorder != nil {
		if err := o.recorder.StartRun(ctx, tracker.Result()); err != nil {
			log.Warnw("Failed to record run start", "error", err)
		}
	}

	fail := func(err error) (model.RunResult, error) {
		tracker.Fail(err)
		result := tracker.Result()
		finishRecording(ctx, o, log, result)
		log.Errorw("Run failed", "error", err, "duration", time.Since(start))
		return result, err
	}

	for _, job := range cfg.Jobs {
		if err := ctx.Err(); err != nil {
			return fail(errors.Wrapf(err, "run cancelled before job %q", job.Name))
		}

		jr, err := ConvertFile(job, cfg.OutputDir, cfg.Strict, log)
		tracker.AddJob(jr)
		if o.recorder != nil {
			if rerr := o.recorder.RecordJob(ctx, o.runID, jr); rerr != nil {
				log.Warnw("Failed to record job", "job", job.Name, "error", rerr)
			}
		}
		if err != nil {
			return fail(errors.Wrapf(err, "job %q", job.Name))
		}

		log.Infow("Job completed",
			"job", job.Name,
			"dest", jr.Dest,
			"rows", jr.RowsWritten,
			"skipped", jr.Skipped,
			"duration", jr.Duration)
	}

	tracker.Complete()
	result := tracker.Result()
	finishRecording(ctx, o, log, result)

	rows, skipped := tracker.Totals()
	log.Infow("Run completed",
		"jobs", len(result.Jobs),
		"rows", rows,
		"skipped", skipped,
		"duration", time.Since(start))
	return result, nil
}

func finishRecording(ctx context.Context, o runOptions, log *zap.SugaredLogger, result model.RunResult) {
	if o.recorder == nil {
		return
	}
	// a cancelled run is still written to history
	if err := o.recorder.FinishRun(context.WithoutCancel(ctx), result); err != nil {
		log.Warnw("Failed to record run result", "error", err)
	}
}

// SelectJobs returns the jobs named in names, in the order given. An empty
// names list selects every job.
func SelectJobs(jobs []model.Job, names []string) ([]model.Job, error) {
	if len(names) == 0 {
		return jobs, nil
	}
	byName := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}
	selected := make([]model.Job, 0, len(names))
	for _, n := range names {
		j, ok := byName[n]
		if !ok {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrNotFound, "job %q", n),
				"run 'prepare-data jobs' to list configured jobs",
			)
		}
		selected = append(selected, j)
	}
	return selected, nil
}
