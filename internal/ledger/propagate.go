package ledger

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/chart"
	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// maxHierarchyDepth bounds the upward walk. Two digits per level means the
// numbering scheme can never come close to this.
const maxHierarchyDepth = 32

// Propagate recomputes ancestor balance cells after accountNumber's balance
// changed for the given month, stamping the rewritten cells with the acting
// userID. At each level the parent's cell is rewritten as the full sum of
// every account sharing that parent, never adjusted incrementally, so the
// result is correct under any interleaving and a second call with no
// postings in between is a no-op.
//
// Each level runs in its own transaction, decoupled from the posting that
// triggered it: a failure here must not undo the committed entry. The walk
// stops below the root sentinel, whose own cell is never written.
func (s *Service) Propagate(accountNumber string, year, month int, userID string) error {
	current := accountNumber
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		acct, err := chart.GetAccount(s.db, current)
		if err != nil {
			return err
		}
		parent := acct.ParentNumber
		if parent == "" || parent == model.RootAccountNumber {
			return nil
		}

		err = s.db.Transaction(func(tx *sql.Tx) error {
			sum, err := sumChildBalances(tx, parent, year, month)
			if err != nil {
				return err
			}
			return setBalance(tx, parent, year, month, sum, userID)
		})
		if err != nil {
			return fmt.Errorf("recomputing %s for %d-%02d: %w", parent, year, month, err)
		}

		current = parent
	}
	return fmt.Errorf("account hierarchy above %s deeper than %d levels", accountNumber, maxHierarchyDepth)
}

// sumChildBalances totals the month's balance cells of every direct child
// of parent. Children without a cell for the month contribute zero.
func sumChildBalances(q storage.Querier, parent string, year, month int) (decimal.Decimal, error) {
	rows, err := q.Query(`
		SELECT ab.balance
		FROM account_balances ab
		JOIN accounts a ON a.account_number = ab.account_number
		WHERE a.parent_account_number = ? AND ab.year = ? AND ab.month = ?`,
		parent, year, month)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing children of %s: %w", parent, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scanning child balance of %s: %w", parent, err)
		}
		b, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing child balance %q of %s: %w", raw, parent, err)
		}
		total = total.Add(b)
	}
	return total, rows.Err()
}
