package commands

import (
	"time"

	"go-data-prep/internal/store"
	"go-data-prep/pkg/errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *GlobalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, history, err := openHistoryOrFail(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()
			defer history.Close()

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				pterm.Info.Println("No runs recorded yet")
				return nil
			}

			data := pterm.TableData{{"ID", "STATUS", "STARTED", "DURATION", "ERROR"}}
			for _, r := range runs {
				duration := "-"
				if !r.EndTime.IsZero() {
					duration = r.EndTime.Sub(r.StartTime).Round(time.Millisecond).String()
				}
				data = append(data, []string{
					r.ID,
					statusColor(r.Status),
					r.StartTime.Local().Format(time.DateTime),
					duration,
					r.Error,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, history, err := openHistoryOrFail(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()
			defer history.Close()

			run, err := history.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			pterm.Printf("Run:      %s\n", run.ID)
			pterm.Printf("Status:   %s\n", statusColor(run.Status))
			pterm.Printf("Started:  %s\n", run.StartTime.Local().Format(time.DateTime))
			if !run.EndTime.IsZero() {
				pterm.Printf("Finished: %s (%s)\n",
					run.EndTime.Local().Format(time.DateTime),
					run.EndTime.Sub(run.StartTime).Round(time.Millisecond))
			}
			if run.Error != "" {
				pterm.Printf("Error:    %s\n", pterm.Red(run.Error))
			}
			pterm.Println()
			printJobResults(run.Jobs)
			return nil
		},
	})
	return cmd
}

func openHistoryOrFail(cmd *cobra.Command, g *GlobalOptions) (*app, *store.Store, error) {
	a, err := g.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	history, err := a.openHistory()
	if err != nil {
		a.close()
		return nil, nil, err
	}
	if history == nil {
		a.close()
		return nil, nil, errors.WithHint(
			errors.New("run history is disabled"),
			"set history.path in the configuration or PREPARE_HISTORY_PATH")
	}
	return a, history, nil
}
