package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookkeep-dev/bookkeep/internal/auditlog"
	"github.com/bookkeep-dev/bookkeep/internal/buildinfo"
	"github.com/bookkeep-dev/bookkeep/internal/chart"
	"github.com/bookkeep-dev/bookkeep/internal/config"
	"github.com/bookkeep-dev/bookkeep/internal/ledger"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bookkeep",
		Short:   "Double-entry bookkeeping over a hierarchical chart of accounts",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "bookkeep.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().String("user", defaultUser(), "acting user id stamped on mutations")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand())
	rootCmd.AddCommand(newEntryCommand())
	rootCmd.AddCommand(newLogCommand())

	return rootCmd
}

func defaultUser() string {
	if u := os.Getenv("BOOKKEEP_USER"); u != "" {
		return u
	}
	return "local"
}

// app bundles the opened services for one command invocation.
type app struct {
	cfg    *config.Config
	db     *storage.DB
	audit  *auditlog.Log
	chart  *chart.Service
	ledger *ledger.Service
	user   string
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	audit := auditlog.New(db, nil)
	return &app{
		cfg:    cfg,
		db:     db,
		audit:  audit,
		chart:  chart.NewService(db, audit),
		ledger: ledger.NewService(db, audit, nil),
		user:   user,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
