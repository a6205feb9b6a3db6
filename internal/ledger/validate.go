package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/chart"
	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// Reason identifies which invariant a proposed entry violated.
type Reason string

const (
	ReasonUnknownAccount   Reason = "unknown_account"
	ReasonNotPostable      Reason = "account_not_postable"
	ReasonInvalidLineData  Reason = "invalid_line_data"
	ReasonUnbalanced       Reason = "unbalanced"
	ReasonDuplicateAccount Reason = "duplicate_account"
)

// ValidationError describes why a proposed entry was rejected. It is always
// surfaced to the caller with its reason code and never retried.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid entry [%s]: %s", e.Reason, e.Detail)
}

// Line is one proposed posting line before validation.
type Line struct {
	AccountNumber string
	Position      model.Position
	Amount        decimal.Decimal
}

// ValidateEntry checks a proposed entry against the chart of accounts read
// through q. Checks run in a fixed order and the first failure wins:
// unknown account, account not postable, bad position/amount, unbalanced
// totals, duplicate account. No side effects.
func ValidateEntry(q storage.Querier, debits, credits []Line) error {
	all := make([]Line, 0, len(debits)+len(credits))
	all = append(all, debits...)
	all = append(all, credits...)
	if len(all) == 0 {
		return &ValidationError{Reason: ReasonInvalidLineData, Detail: "entry has no lines"}
	}

	seen := make(map[string]model.Account)
	for _, line := range all {
		if _, ok := seen[line.AccountNumber]; ok {
			continue
		}
		acct, err := chart.GetAccount(q, line.AccountNumber)
		if errors.Is(err, chart.ErrAccountNotFound) {
			return &ValidationError{
				Reason: ReasonUnknownAccount,
				Detail: fmt.Sprintf("account %s does not exist", line.AccountNumber),
			}
		}
		if err != nil {
			// A store failure is not a verdict on the entry; let the
			// caller surface it as a posting failure.
			return err
		}
		seen[line.AccountNumber] = acct
	}

	for _, line := range all {
		acct := seen[line.AccountNumber]
		if !acct.AllowsMovement || acct.Disabled {
			return &ValidationError{
				Reason: ReasonNotPostable,
				Detail: fmt.Sprintf("account %s does not allow movement or is disabled", line.AccountNumber),
			}
		}
	}

	for _, line := range debits {
		if line.Position != model.PositionDebit {
			return &ValidationError{
				Reason: ReasonInvalidLineData,
				Detail: fmt.Sprintf("debit line for %s has position %q", line.AccountNumber, line.Position),
			}
		}
	}
	for _, line := range credits {
		if line.Position != model.PositionCredit {
			return &ValidationError{
				Reason: ReasonInvalidLineData,
				Detail: fmt.Sprintf("credit line for %s has position %q", line.AccountNumber, line.Position),
			}
		}
	}
	for _, line := range all {
		if !line.Amount.IsPositive() {
			return &ValidationError{
				Reason: ReasonInvalidLineData,
				Detail: fmt.Sprintf("line for %s has non-positive amount %s", line.AccountNumber, line.Amount),
			}
		}
	}

	totalDebit := decimal.Zero
	for _, line := range debits {
		totalDebit = totalDebit.Add(line.Amount)
	}
	totalCredit := decimal.Zero
	for _, line := range credits {
		totalCredit = totalCredit.Add(line.Amount)
	}
	if !totalDebit.Equal(totalCredit) {
		return &ValidationError{
			Reason: ReasonUnbalanced,
			Detail: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
		}
	}

	counts := make(map[string]int)
	for _, line := range all {
		counts[line.AccountNumber]++
		if counts[line.AccountNumber] > 1 {
			return &ValidationError{
				Reason: ReasonDuplicateAccount,
				Detail: fmt.Sprintf("account %s appears more than once", line.AccountNumber),
			}
		}
	}

	return nil
}
