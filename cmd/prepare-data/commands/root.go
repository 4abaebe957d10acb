package commands

import (
	"context"
	"os"

	"go-data-prep/internal/config"
	"go-data-prep/internal/logger"
	"go-data-prep/internal/store"
	"go-data-prep/pkg/errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X ...commands.Version=v1.2.3".
var Version = "dev"

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	configPath string
	jsonLog    bool
	verbose    int
}

// app is what a command needs once configuration has been loaded.
type app struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

// NewRootCmd builds the prepare-data command tree.
func NewRootCmd() *cobra.Command {
	opts := &GlobalOptions{}
	root := &cobra.Command{
		Use:   "prepare-data",
		Short: "Convert JSON lines files into fully quoted CSV",
		Long: `prepare-data converts files holding one JSON object per line into CSV files
with a fixed column list. Every cell is quoted and fields missing from a record
become empty cells.

Available commands:
  run      - Run the configured conversion jobs
  convert  - Convert a single file
  jobs     - List configured jobs
  history  - Inspect previous runs
  serve    - Start the HTTP API

Examples:
  prepare-data run                          # products and listings
  prepare-data run --job listings           # one job
  prepare-data convert --fields a,b in.txt out.csv
  cat in.txt | prepare-data convert --fields a,b - -`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	AddGlobalFlags(root, opts)

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newConvertCmd(opts))
	root.AddCommand(newJobsCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(NewServeCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// AddGlobalFlags registers the persistent flags on cmd.
func AddGlobalFlags(cmd *cobra.Command, opts *GlobalOptions) {
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: ./"+config.DefaultConfigFile+" if present)")
	cmd.PersistentFlags().BoolVar(&opts.jsonLog, "json-log", false, "Write logs as JSON")
	cmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity")
}

// NewGlobalOptions returns empty global options for binaries that assemble
// their own command tree.
func NewGlobalOptions() *GlobalOptions {
	return &GlobalOptions{}
}

// load reads configuration and builds the logger. Flags given on the
// command line win over the config file and environment.
func (o *GlobalOptions) load(cmd *cobra.Command) (*app, error) {
	v, err := config.New(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	jsonLog := cfg.Log.JSON
	if cmd.Flags().Changed("json-log") {
		jsonLog = o.jsonLog
	}
	log, err := logger.New(jsonLog, cfg.Log.Verbose || o.verbose > 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return &app{cfg: cfg, log: log}, nil
}

// openHistory opens the run history, or returns nil when it is disabled.
func (a *app) openHistory() (*store.Store, error) {
	if a.cfg.History.Path == "" {
		return nil, nil
	}
	return store.Open(a.cfg.History.Path)
}

func (a *app) close() {
	_ = a.log.Sync()
}

// Execute runs cmd and exits non-zero on failure, printing the error and
// any hints attached to it.
func Execute(cmd *cobra.Command) {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		PrintError(err)
		os.Exit(1)
	}
}

// PrintError reports err on stderr together with its hints.
func PrintError(err error) {
	pterm.Error.WithWriter(os.Stderr).Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.WithWriter(os.Stderr).Println(hint)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the prepare-data version",
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Printf("prepare-data %s\n", Version)
		},
	}
}
