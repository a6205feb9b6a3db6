package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the side marker on a posting line.
type Position string

const (
	PositionDebit  Position = "Debe"
	PositionCredit Position = "Haber"
)

// Flip returns the opposite position. Used when building reversal lines.
func (p Position) Flip() Position {
	if p == PositionDebit {
		return PositionCredit
	}
	return PositionDebit
}

// Valid reports whether p is one of the two recognized markers.
func (p Position) Valid() bool {
	return p == PositionDebit || p == PositionCredit
}

// Entry is a journal entry: a dated, described set of balanced detail lines.
// Entries are never deleted. A write-off creates a new entry with flipped
// lines and marks the original non-editable.
type Entry struct {
	Number      int64
	Date        time.Time
	Description string
	Editable    bool
	ReversalOf  int64 // entry number this entry offsets; 0 when not a reversal
	Details     []EntryDetail
	CreatedBy   string
	UpdatedBy   string
}

// EntryDetail is one line of an entry: an account, a side, and an amount.
type EntryDetail struct {
	ID            int64
	EntryNumber   int64
	AccountNumber string
	Position      Position
	Amount        decimal.Decimal
}

// Debits returns the entry's detail lines on the debit side, in order.
func (e Entry) Debits() []EntryDetail {
	return e.side(PositionDebit)
}

// Credits returns the entry's detail lines on the credit side, in order.
func (e Entry) Credits() []EntryDetail {
	return e.side(PositionCredit)
}

func (e Entry) side(p Position) []EntryDetail {
	var out []EntryDetail
	for _, d := range e.Details {
		if d.Position == p {
			out = append(out, d)
		}
	}
	return out
}
