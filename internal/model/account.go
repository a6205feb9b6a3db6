package model

// Behavior classifies how an account's balance reacts to posting positions.
// A debit-normal account grows on "Debe" lines; a credit-normal account
// grows on "Haber" lines.
type Behavior string

const (
	BehaviorDebit  Behavior = "Debe"
	BehaviorCredit Behavior = "Haber"
	// BehaviorNone marks the root sentinel account only. It is never
	// inheritable and never valid on a postable account.
	BehaviorNone Behavior = "No aplica"
)

// RootAccountNumber is the sentinel at the top of the chart of accounts.
// It has no parent, carries BehaviorNone, and is never posted to, renamed,
// or disabled. Balance propagation stops below it.
const RootAccountNumber = "0"

// Account is a node in the chart of accounts. Its number encodes the
// hierarchy: a parent's number is a prefix of every child's number, with
// children numbered by a two-digit zero-padded suffix.
type Account struct {
	Number         string
	Name           string
	Behavior       Behavior
	AllowsMovement bool // true only while the account has no children
	Disabled       bool
	ParentNumber   string // empty for the root sentinel
	CreatedBy      string
	UpdatedBy      string
}

// IsRoot reports whether the account is the root sentinel.
func (a Account) IsRoot() bool {
	return a.Number == RootAccountNumber
}
