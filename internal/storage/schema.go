package storage

// Balances and amounts are stored as decimal TEXT and parsed with
// shopspring/decimal on scan; SQLite REAL would lose exactness.
const schema = `
CREATE TABLE IF NOT EXISTS behavior_types (
    type TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS accounts (
    account_number        TEXT PRIMARY KEY,
    name                  TEXT NOT NULL,
    behavior_type         TEXT NOT NULL REFERENCES behavior_types(type),
    allows_movement       INTEGER NOT NULL DEFAULT 1,
    is_disabled           INTEGER NOT NULL DEFAULT 0,
    parent_account_number TEXT REFERENCES accounts(account_number),
    created_by            TEXT NOT NULL,
    created_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_by            TEXT NOT NULL,
    updated_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_parent
    ON accounts(parent_account_number);

CREATE TABLE IF NOT EXISTS account_balances (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    account_number TEXT NOT NULL REFERENCES accounts(account_number),
    year           INTEGER NOT NULL,
    month          INTEGER NOT NULL,
    balance        TEXT NOT NULL DEFAULT '0',
    created_by     TEXT NOT NULL,
    updated_by     TEXT NOT NULL,
    UNIQUE(account_number, year, month)
);

CREATE TABLE IF NOT EXISTS entries (
    entry_number INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_date   TEXT NOT NULL,
    description  TEXT NOT NULL,
    is_editable  INTEGER NOT NULL DEFAULT 1,
    reversal_of  INTEGER REFERENCES entries(entry_number),
    created_by   TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_by   TEXT NOT NULL,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entry_details (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_number   INTEGER NOT NULL REFERENCES entries(entry_number),
    account_number TEXT NOT NULL REFERENCES accounts(account_number),
    entry_position TEXT NOT NULL,
    amount         TEXT NOT NULL,
    created_by     TEXT NOT NULL,
    updated_by     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entry_details_entry
    ON entry_details(entry_number);

CREATE INDEX IF NOT EXISTS idx_entry_details_account
    ON entry_details(account_number);

CREATE TABLE IF NOT EXISTS audit_log (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    logged_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    action    TEXT NOT NULL,
    user_id   TEXT NOT NULL
);
`

func (d *DB) initSchema() error {
	_, err := d.db.Exec(schema)
	return err
}
