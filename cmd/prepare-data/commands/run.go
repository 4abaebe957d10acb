package commands

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-data-prep/internal/model"
	"go-data-prep/internal/pipeline"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type runOptions struct {
	jobs      []string
	lenient   bool
	outputDir string
}

func newRunCmd(g *GlobalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured conversion jobs",
		Long: `Run every configured job, or the ones named with --job, one after another.
The run stops at the first job that fails. Rows already written by the failing
job are left in its destination file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, g, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.jobs, "job", nil, "Run only the named jobs, in the order given (repeatable)")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "Skip malformed lines instead of failing the job")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory for relative destinations (overrides output_dir)")
	return cmd
}

func runJobs(cmd *cobra.Command, g *GlobalOptions, opts *runOptions) error {
	a, err := g.load(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if opts.outputDir != "" {
		a.cfg.OutputDir = opts.outputDir
	}
	if opts.lenient {
		a.cfg.Strict = false
	}

	jobs, err := pipeline.SelectJobs(a.cfg.Jobs, opts.jobs)
	if err != nil {
		return err
	}

	history, err := a.openHistory()
	if err != nil {
		return err
	}
	runOpts := []pipeline.Option{pipeline.WithLogger(a.log)}
	if history != nil {
		defer history.Close()
		runOpts = append(runOpts, pipeline.WithRecorder(history))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, a.cfg.RunConfig(jobs), runOpts...)
	printJobResults(result.Jobs)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Run %s completed: %d job(s)\n", result.ID, len(result.Jobs))
	return nil
}

func printJobResults(jobs []model.JobResult) {
	if len(jobs) == 0 {
		return
	}
	data := pterm.TableData{{"JOB", "STATUS", "ROWS", "SKIPPED", "DEST", "DURATION"}}
	for _, j := range jobs {
		data = append(data, []string{
			j.Job,
			statusColor(j.Status),
			strconv.FormatInt(j.RowsWritten, 10),
			strconv.FormatInt(j.Skipped, 10),
			j.Dest,
			j.Duration.Round(time.Microsecond).String(),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func statusColor(status string) string {
	switch status {
	case model.StatusCompleted:
		return pterm.Green(status)
	case model.StatusFailed:
		return pterm.Red(status)
	default:
		return pterm.Yellow(status)
	}
}
