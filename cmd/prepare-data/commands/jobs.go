package commands

import (
	"strings"

	"go-data-prep/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newJobsCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List configured jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if len(a.cfg.Jobs) == 0 {
				pterm.Warning.Println("No jobs configured")
				return nil
			}

			om := utils.NewOutputManager(a.cfg.OutputDir)
			data := pterm.TableData{{"NAME", "SOURCE", "DEST", "FIELDS"}}
			for _, j := range a.cfg.Jobs {
				data = append(data, []string{j.Name, j.Source, om.Resolve(j.Dest), strings.Join(j.Fields, ",")})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}
