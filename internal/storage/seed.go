package storage

import (
	"database/sql"
	"fmt"

	"github.com/bookkeep-dev/bookkeep/internal/model"
)

// seedAccount is one row of the standard chart shipped with a fresh database.
type seedAccount struct {
	number   string
	name     string
	behavior model.Behavior
	parent   string // empty = no parent (root only)
	leaf     bool   // whether the account accepts postings
}

// Root sentinel first; foreign keys require parents before children.
var defaultChart = []seedAccount{
	{number: model.RootAccountNumber, name: "No aplica", behavior: model.BehaviorNone},
	{number: "1", name: "Activo", behavior: model.BehaviorDebit, parent: "0"},
	{number: "11", name: "Activo corriente", behavior: model.BehaviorDebit, parent: "1"},
	{number: "1101", name: "Efectivo y equivalentes", behavior: model.BehaviorDebit, parent: "11"},
	{number: "110101", name: "Caja", behavior: model.BehaviorDebit, parent: "1101", leaf: true},
	{number: "110102", name: "Bancos", behavior: model.BehaviorDebit, parent: "1101", leaf: true},
	{number: "2", name: "Pasivo", behavior: model.BehaviorCredit, parent: "0"},
	{number: "21", name: "Pasivo corriente", behavior: model.BehaviorCredit, parent: "2"},
	{number: "2101", name: "Cuentas por pagar", behavior: model.BehaviorCredit, parent: "21"},
	{number: "210101", name: "Proveedores", behavior: model.BehaviorCredit, parent: "2101", leaf: true},
	{number: "3", name: "Patrimonio", behavior: model.BehaviorCredit, parent: "0", leaf: true},
	{number: "4", name: "Ingresos", behavior: model.BehaviorCredit, parent: "0", leaf: true},
	{number: "5", name: "Gastos", behavior: model.BehaviorDebit, parent: "0", leaf: true},
}

// Seed loads the behavior types and the standard chart of accounts into an
// empty database. Behavior types are always reconciled; the chart is only
// written when the accounts table is empty, so re-running init is safe.
func (d *DB) Seed(userID string) error {
	return d.Transaction(func(tx *sql.Tx) error {
		for _, b := range []model.Behavior{model.BehaviorDebit, model.BehaviorCredit, model.BehaviorNone} {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO behavior_types (type) VALUES (?)`, string(b)); err != nil {
				return fmt.Errorf("seeding behavior type %s: %w", b, err)
			}
		}

		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
			return fmt.Errorf("counting accounts: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, a := range defaultChart {
			var parent any
			if a.parent != "" {
				parent = a.parent
			}
			_, err := tx.Exec(`
				INSERT INTO accounts (account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by)
				VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
				a.number, a.name, string(a.behavior), boolToInt(a.leaf), parent, userID, userID)
			if err != nil {
				return fmt.Errorf("seeding account %s: %w", a.number, err)
			}
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
