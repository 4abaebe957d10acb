package commands

import (
	"os"
	"os/signal"
	"syscall"

	"go-data-prep/internal/api"
	"go-data-prep/internal/api/handler"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the command that starts the HTTP API.
func NewServeCmd(g *GlobalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP API",
		Long: `Start the HTTP API. It converts request bodies on POST /api/v1/convert, runs
configured jobs on POST /api/v1/runs and serves its OpenAPI description under
/swagger/. Ctrl+C drains in-flight requests before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			history, err := a.openHistory()
			if err != nil {
				return err
			}
			h := &handler.Handler{Config: a.cfg, Log: a.log}
			if history != nil {
				defer history.Close()
				h.History = history
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pterm.Info.Printf("Serving on %s (docs at /swagger/index.html)\n", a.cfg.Server.Addr)
			srv := api.NewServer(a.cfg.Server.Addr, api.NewRouter(h), a.cfg.Server.ShutdownTimeoutDuration(), a.log)
			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
