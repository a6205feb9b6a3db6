package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookkeep-dev/bookkeep/internal/config"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

func newInitCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and seed a new set of books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			user, err := cmd.Flags().GetString("user")
			if err != nil {
				return err
			}
			return runInit(cfgPath, dbPath, user)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path (defaults to bookkeep.db)")

	return cmd
}

func runInit(cfgPath, dbPath, user string) error {
	cfg := config.Default()
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	} else if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Seed(user); err != nil {
		return fmt.Errorf("seeding reference data: %w", err)
	}

	fmt.Printf("Initialized books at %s (config: %s)\n", cfg.Storage.Path, cfgPath)
	return nil
}
