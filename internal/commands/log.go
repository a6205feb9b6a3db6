package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the audit log",
	}

	cmd.AddCommand(newLogListCommand())

	return cmd
}

func newLogListCommand() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.audit.List(page, app.cfg.Pagination.AuditLog)
			if err != nil {
				return err
			}
			for _, r := range result.Items {
				fmt.Printf("%s  %-12s %s\n", r.LoggedAt.Format(time.RFC3339), r.UserID, r.Action)
			}
			fmt.Printf("Page %d of %d (%d records)\n", result.CurrentPage, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")

	return cmd
}
