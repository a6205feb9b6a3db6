package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"behavior_types", "accounts", "account_balances", "entries", "entry_details", "audit_log"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Seed("tester"))
	require.NoError(t, db.Seed("tester"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count))
	assert.Equal(t, len(defaultChart), count)

	var behaviors int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM behavior_types`).Scan(&behaviors))
	assert.Equal(t, 3, behaviors)
}

func TestSeed_RootHasNoParent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Seed("tester"))

	var parent sql.NullString
	require.NoError(t, db.QueryRow(`SELECT parent_account_number FROM accounts WHERE account_number = '0'`).Scan(&parent))
	assert.False(t, parent.Valid)
}

func TestSeed_ParentsClosedToMovement(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Seed("tester"))

	var allows int
	require.NoError(t, db.QueryRow(`SELECT allows_movement FROM accounts WHERE account_number = '1101'`).Scan(&allows))
	assert.Equal(t, 0, allows, "accounts with children are not postable")

	require.NoError(t, db.QueryRow(`SELECT allows_movement FROM accounts WHERE account_number = '110101'`).Scan(&allows))
	assert.Equal(t, 1, allows, "seeded leaves are postable")
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Seed("tester"))

	boom := errors.New("boom")
	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE accounts SET name = 'changed' WHERE account_number = '110101'`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM accounts WHERE account_number = '110101'`).Scan(&name))
	assert.Equal(t, "Caja", name)
}

func TestTransaction_Commits(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Seed("tester"))

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE accounts SET name = 'Caja chica' WHERE account_number = '110101'`)
		return err
	})
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM accounts WHERE account_number = '110101'`).Scan(&name))
	assert.Equal(t, "Caja chica", name)
}
