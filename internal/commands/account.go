package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookkeep-dev/bookkeep/internal/chart"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}

	cmd.AddCommand(newAccountAddCommand())
	cmd.AddCommand(newAccountListCommand())
	cmd.AddCommand(newAccountLeavesCommand())
	cmd.AddCommand(newAccountShowCommand())
	cmd.AddCommand(newAccountRenameCommand())
	cmd.AddCommand(newAccountToggleCommand())

	return cmd
}

func newAccountAddCommand() *cobra.Command {
	var name, parent string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a child account under a parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			acct, err := app.chart.Create(name, parent, app.user)
			if err != nil {
				return err
			}
			fmt.Printf("Created account %s (%s, %s)\n", acct.Number, acct.Name, acct.Behavior)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account display name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account number (required)")
	_ = cmd.MarkFlagRequired("parent")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.chart.List(page, app.cfg.Pagination.Accounts, app.user)
			if err != nil {
				return err
			}
			for _, a := range result.Items {
				printAccount(a)
			}
			fmt.Printf("Page %d of %d (%d accounts)\n", result.CurrentPage, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")

	return cmd
}

func newAccountLeavesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leaves",
		Short: "List enabled accounts that accept postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			infos, err := app.chart.ListEnabledLeaves(app.user)
			if err != nil {
				return err
			}
			for _, a := range infos {
				printAccount(a)
			}
			return nil
		},
	}
}

func newAccountShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			info, err := app.chart.GetByNumber(args[0], app.user)
			if err != nil {
				return err
			}
			printAccount(info)
			return nil
		},
	}
}

func newAccountRenameCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <number>",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			acct, err := app.chart.Rename(args[0], name, app.user)
			if err != nil {
				return err
			}
			fmt.Printf("Renamed account %s to %q\n", acct.Number, acct.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newAccountToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <number>",
		Short: "Disable an account, or re-enable a disabled one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			acct, err := app.chart.SwitchDisable(args[0], app.user)
			if err != nil {
				return err
			}
			state := "enabled"
			if acct.Disabled {
				state = "disabled"
			}
			fmt.Printf("Account %s is now %s\n", acct.Number, state)
			return nil
		},
	}
}

func printAccount(a chart.AccountInfo) {
	flags := ""
	if a.Disabled {
		flags = " [disabled]"
	} else if a.AllowsMovement {
		flags = " [postable]"
	}
	fmt.Printf("%-10s %-30s %-6s %12s%s\n", a.Number, a.Name, a.Behavior, a.Balance.StringFixed(2), flags)
}
