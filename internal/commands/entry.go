package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bookkeep-dev/bookkeep/internal/importer"
	"github.com/bookkeep-dev/bookkeep/internal/ledger"
	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/pagination"
)

const dateLayout = "2006-01-02"

func newEntryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Create and inspect journal entries",
	}

	cmd.AddCommand(newEntryAddCommand())
	cmd.AddCommand(newEntryShowCommand())
	cmd.AddCommand(newEntryListCommand())
	cmd.AddCommand(newEntryEditCommand())
	cmd.AddCommand(newEntryWriteOffCommand())
	cmd.AddCommand(newEntryImportCommand())

	return cmd
}

func newEntryAddCommand() *cobra.Command {
	var date, description string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Post a balanced journal entry",
		Example: `  bookkeep entry add --description "Cash sale" \
      --debit 110101=500.00 --credit 210101=500.00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entryDate := time.Now()
			if date != "" {
				entryDate, err = time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("parsing --date: %w", err)
				}
			}

			debitLines, err := parseLines(debits, model.PositionDebit)
			if err != nil {
				return err
			}
			creditLines, err := parseLines(credits, model.PositionCredit)
			if err != nil {
				return err
			}

			entry, err := app.ledger.CreateEntry(ledger.CreateParams{
				Date:        entryDate,
				Description: description,
				Debits:      debitLines,
				Credits:     creditLines,
				UserID:      app.user,
			})
			if err != nil {
				return err
			}
			printEntry(entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringVar(&description, "description", "", "entry description (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit line account=amount (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit line account=amount (repeatable)")

	return cmd
}

func newEntryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one entry with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseEntryNumber(args[0])
			if err != nil {
				return err
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.ledger.GetEntry(number, app.user)
			if err != nil {
				return err
			}
			printEntry(entry)
			return nil
		},
	}
}

func newEntryListCommand() *cobra.Command {
	var page int
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var result pagination.Page[model.Entry]
			if from != "" || to != "" {
				fromDate, toDate, err := parseDateRange(from, to)
				if err != nil {
					return err
				}
				result, err = app.ledger.ListEntriesByDate(fromDate, toDate, page, app.cfg.Pagination.Entries, app.user)
				if err != nil {
					return err
				}
			} else {
				result, err = app.ledger.ListEntries(page, app.cfg.Pagination.Entries, app.user)
				if err != nil {
					return err
				}
			}

			for _, e := range result.Items {
				printEntry(e)
			}
			fmt.Printf("Page %d of %d (%d entries)\n", result.CurrentPage, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")

	return cmd
}

func newEntryEditCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "edit <number>",
		Short: "Change an entry's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseEntryNumber(args[0])
			if err != nil {
				return err
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.ledger.EditEntry(number, description, app.user)
			if err != nil {
				return err
			}
			fmt.Printf("Updated entry %d\n", entry.Number)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "new description (required)")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newEntryWriteOffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "writeoff <number>",
		Short: "Reverse an entry with an offsetting entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseEntryNumber(args[0])
			if err != nil {
				return err
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			reversal, err := app.ledger.WriteOff(number, app.user)
			if err != nil {
				return err
			}
			fmt.Printf("Entry %d reversed by entry %d\n", number, reversal.Number)
			printEntry(reversal)
			return nil
		},
	}
}

func newEntryImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Post entries from a CSV file",
		Long: `Post journal entries from a CSV file with the header

  ` + importer.Header + `

Rows sharing a group key form one entry. The file is parsed in full
before any entry is posted; posting stops at the first rejected entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := importer.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Nothing to import")
				return nil
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			posted, err := importer.Import(app.ledger, entries, app.user)
			if err != nil {
				return fmt.Errorf("imported %d of %d entries: %w", posted, len(entries), err)
			}
			fmt.Printf("Imported %d entries\n", posted)
			return nil
		},
	}
}

// parseLines converts repeated "account=amount" flags into posting lines.
func parseLines(specs []string, pos model.Position) ([]ledger.Line, error) {
	lines := make([]ledger.Line, 0, len(specs))
	for _, spec := range specs {
		account, raw, found := strings.Cut(spec, "=")
		if !found || account == "" {
			return nil, fmt.Errorf("invalid line %q, expected account=amount", spec)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", spec, err)
		}
		lines = append(lines, ledger.Line{
			AccountNumber: account,
			Position:      pos,
			Amount:        amount,
		})
	}
	return lines, nil
}

func parseEntryNumber(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry number %q: %w", arg, err)
	}
	return n, nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	fromDate := time.Time{}
	toDate := time.Now()
	var err error
	if from != "" {
		fromDate, err = time.Parse(dateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --from: %w", err)
		}
	}
	if to != "" {
		toDate, err = time.Parse(dateLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --to: %w", err)
		}
	}
	return fromDate, toDate, nil
}

func printEntry(e model.Entry) {
	state := "editable"
	if !e.Editable {
		state = "final"
	}
	link := ""
	if e.ReversalOf != 0 {
		link = fmt.Sprintf(" (reverses %d)", e.ReversalOf)
	}
	fmt.Printf("Entry %d  %s  %s [%s]%s\n", e.Number, e.Date.Format(dateLayout), e.Description, state, link)
	for _, d := range e.Details {
		fmt.Printf("  %-6s %-10s %12s\n", d.Position, d.AccountNumber, d.Amount.StringFixed(2))
	}
}
