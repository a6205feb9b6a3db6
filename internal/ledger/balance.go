package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// applyToBalance applies one posting line to the account's balance cell for
// the given month, creating the cell at zero first when absent.
//
// The sign rule: a line whose position matches the account's behavior adds
// the amount, a mismatched line subtracts it. Reversal lines arrive with
// their positions already flipped, so the same rule covers both postings
// and write-offs.
func applyToBalance(q storage.Querier, acct model.Account, year, month int, pos model.Position, amount decimal.Decimal, userID string) error {
	delta := amount
	if (acct.Behavior == model.BehaviorDebit) != (pos == model.PositionDebit) {
		delta = delta.Neg()
	}
	return upsertBalance(q, acct.Number, year, month, delta, userID)
}

// upsertBalance adds delta to the (account, year, month) cell.
func upsertBalance(q storage.Querier, number string, year, month int, delta decimal.Decimal, userID string) error {
	var raw string
	err := q.QueryRow(`
		SELECT balance FROM account_balances
		WHERE account_number = ? AND year = ? AND month = ?`, number, year, month).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = q.Exec(`
			INSERT INTO account_balances (account_number, year, month, balance, created_by, updated_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			number, year, month, delta.String(), userID, userID)
		if err != nil {
			return fmt.Errorf("creating balance cell for %s %d-%02d: %w", number, year, month, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("loading balance cell for %s %d-%02d: %w", number, year, month, err)
	}

	current, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parsing balance %q for %s: %w", raw, number, err)
	}
	_, err = q.Exec(`
		UPDATE account_balances SET balance = ?, updated_by = ?
		WHERE account_number = ? AND year = ? AND month = ?`,
		current.Add(delta).String(), userID, number, year, month)
	if err != nil {
		return fmt.Errorf("updating balance cell for %s %d-%02d: %w", number, year, month, err)
	}
	return nil
}

// setBalance overwrites the (account, year, month) cell with an absolute
// value, creating it when absent. The propagator uses it to rewrite parent
// cells from the full set of children.
func setBalance(q storage.Querier, number string, year, month int, value decimal.Decimal, userID string) error {
	res, err := q.Exec(`
		UPDATE account_balances SET balance = ?, updated_by = ?
		WHERE account_number = ? AND year = ? AND month = ?`,
		value.String(), userID, number, year, month)
	if err != nil {
		return fmt.Errorf("writing balance cell for %s %d-%02d: %w", number, year, month, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("writing balance cell for %s %d-%02d: %w", number, year, month, err)
	}
	if n == 0 {
		_, err = q.Exec(`
			INSERT INTO account_balances (account_number, year, month, balance, created_by, updated_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			number, year, month, value.String(), userID, userID)
		if err != nil {
			return fmt.Errorf("creating balance cell for %s %d-%02d: %w", number, year, month, err)
		}
	}
	return nil
}
