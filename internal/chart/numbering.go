package chart

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// suffixWidth is the fixed width of a child's numeric suffix under its
// parent: children are numbered 01..99.
const suffixWidth = 2

var (
	// ErrBadSiblingNumber means an existing child's number does not end in
	// a parseable numeric suffix, so the next number cannot be derived.
	ErrBadSiblingNumber = errors.New("sibling account number has a malformed suffix")
	// ErrNumberSpaceExhausted means the parent already has child 99.
	ErrNumberSpaceExhausted = errors.New("no child account numbers left under parent")
)

// DeriveChildNumber returns the account number for the next child created
// under parentNumber: the parent's number plus a two-digit suffix, starting
// at "01" and incrementing past the greatest existing sibling. A sibling
// whose suffix does not parse is an error, never a silent restart at "01" —
// reissuing "01" would collide with the existing first child.
func DeriveChildNumber(q storage.Querier, parentNumber string) (string, error) {
	var exists int
	err := q.QueryRow(`SELECT COUNT(*) FROM accounts WHERE account_number = ?`, parentNumber).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("looking up parent %s: %w", parentNumber, err)
	}
	if exists == 0 {
		return "", fmt.Errorf("parent account %s: %w", parentNumber, ErrAccountNotFound)
	}

	var last sql.NullString
	err = q.QueryRow(`SELECT MAX(account_number) FROM accounts WHERE parent_account_number = ?`, parentNumber).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("finding last child of %s: %w", parentNumber, err)
	}
	if !last.Valid {
		return fmt.Sprintf("%s%0*d", parentNumber, suffixWidth, 1), nil
	}

	suffix := last.String[len(parentNumber):]
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 1 {
		return "", fmt.Errorf("child %s of %s: %w", last.String, parentNumber, ErrBadSiblingNumber)
	}
	if seq >= 99 {
		return "", fmt.Errorf("parent %s: %w", parentNumber, ErrNumberSpaceExhausted)
	}
	return fmt.Sprintf("%s%0*d", parentNumber, suffixWidth, seq+1), nil
}
