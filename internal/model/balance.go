package model

import "github.com/shopspring/decimal"

// AccountBalance is one balance cell: the running balance of an account for
// a calendar month. At most one cell exists per (account, year, month); cells
// are created lazily on first posting or parent recompute and never deleted.
type AccountBalance struct {
	AccountNumber string
	Year          int
	Month         int
	Balance       decimal.Decimal
}
