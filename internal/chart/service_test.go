package chart

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkeep-dev/bookkeep/internal/auditlog"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Seed("tester"))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	db := openTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, auditlog.New(db, logger)), db
}

func setBalance(t *testing.T, db *storage.DB, number string, year, month int, balance string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO account_balances (account_number, year, month, balance, created_by, updated_by)
		VALUES (?, ?, ?, ?, 'tester', 'tester')
		ON CONFLICT(account_number, year, month) DO UPDATE SET balance = excluded.balance`,
		number, year, month, balance)
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	svc, db := newTestService(t)

	acct, err := svc.Create("Clientes", "1101", "alice")
	require.NoError(t, err)
	assert.Equal(t, "110103", acct.Number)
	assert.Equal(t, "Clientes", acct.Name)
	assert.True(t, acct.AllowsMovement)
	assert.False(t, acct.Disabled)
	assert.Equal(t, "1101", acct.ParentNumber)
	assert.EqualValues(t, "Debe", acct.Behavior, "behavior inherited from parent")

	// A zero balance cell exists for the current month.
	var balance string
	err = db.QueryRow(`SELECT balance FROM account_balances WHERE account_number = '110103'`).Scan(&balance)
	require.NoError(t, err)
	assert.Equal(t, "0", balance)
}

func TestCreate_FlipsParentMovement(t *testing.T) {
	svc, db := newTestService(t)

	// "3" is seeded as a postable leaf.
	acct, err := svc.Create("Capital social", "3", "alice")
	require.NoError(t, err)
	assert.Equal(t, "301", acct.Number)

	var allows int
	require.NoError(t, db.QueryRow(`SELECT allows_movement FROM accounts WHERE account_number = '3'`).Scan(&allows))
	assert.Equal(t, 0, allows, "first child closes the parent to postings")
}

func TestCreate_DuplicateName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("Caja", "1101", "alice")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreate_UnknownParent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("Huérfana", "9999", "alice")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreate_UnderRoot(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("Nueva clase", "0", "alice")
	assert.ErrorIs(t, err, ErrBehaviorNotInheritable)
}

func TestRename(t *testing.T) {
	svc, _ := newTestService(t)

	acct, err := svc.Rename("110101", "Caja general", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Caja general", acct.Name)
	assert.Equal(t, "alice", acct.UpdatedBy)

	info, err := svc.GetByNumber("110101", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Caja general", info.Name)
}

func TestRename_Disabled(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)

	_, err = svc.Rename("110101", "Nuevo nombre", "alice")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRename_Root(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Rename("0", "Algo", "alice")
	assert.ErrorIs(t, err, ErrRootAccount)
}

func TestSwitchDisable_LeafWithZeroBalance(t *testing.T) {
	svc, _ := newTestService(t)

	acct, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)
	assert.True(t, acct.Disabled)
}

func TestSwitchDisable_ReEnableUnconditional(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)

	// Even with a balance on the books, re-enabling always succeeds.
	setBalance(t, db, "110101", 2025, 6, "100.00")
	acct, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)
	assert.False(t, acct.Disabled)
}

func TestSwitchDisable_LeafWithBalance(t *testing.T) {
	svc, db := newTestService(t)

	setBalance(t, db, "110101", 2025, 6, "250.00")
	_, err := svc.SwitchDisable("110101", "alice")
	assert.ErrorIs(t, err, ErrCannotDisable)

	info, err := svc.GetByNumber("110101", "alice")
	require.NoError(t, err)
	assert.False(t, info.Disabled, "failed toggle must not change state")
}

func TestSwitchDisable_BalancesCancelAcrossMonths(t *testing.T) {
	svc, db := newTestService(t)

	// Cells in different months that sum to zero do not block disabling.
	setBalance(t, db, "110101", 2025, 5, "75.00")
	setBalance(t, db, "110101", 2025, 6, "-75.00")
	acct, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)
	assert.True(t, acct.Disabled)
}

func TestSwitchDisable_ParentWithEnabledChild(t *testing.T) {
	svc, db := newTestService(t)

	setBalance(t, db, "110101", 2025, 6, "500.00")
	_, err := svc.SwitchDisable("1101", "alice")
	assert.ErrorIs(t, err, ErrCannotDisable)
}

func TestSwitchDisable_ParentAfterChildren(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)
	_, err = svc.SwitchDisable("110102", "alice")
	require.NoError(t, err)

	acct, err := svc.SwitchDisable("1101", "alice")
	require.NoError(t, err)
	assert.True(t, acct.Disabled)
}

func TestSwitchDisable_Root(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SwitchDisable("0", "alice")
	assert.ErrorIs(t, err, ErrRootAccount)
}

func TestGetByNumber(t *testing.T) {
	svc, db := newTestService(t)

	now := svc.now()
	setBalance(t, db, "110101", now.Year(), int(now.Month()), "321.50")

	info, err := svc.GetByNumber("110101", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Caja", info.Name)
	assert.Equal(t, "Efectivo y equivalentes", info.ParentName)
	assert.True(t, info.Balance.Equal(decimal.RequireFromString("321.50")))
}

func TestGetByNumber_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByNumber("424242", "alice")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetByNumber_Disabled(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)

	_, err = svc.GetByNumber("110101", "alice")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestListEnabledLeaves(t *testing.T) {
	svc, _ := newTestService(t)

	infos, err := svc.ListEnabledLeaves("alice")
	require.NoError(t, err)

	numbers := make([]string, len(infos))
	for i, info := range infos {
		numbers[i] = info.Number
	}
	assert.Equal(t, []string{"110101", "110102", "210101", "3", "4", "5"}, numbers)
}

func TestListEnabledLeaves_AfterAddingChild(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("Capital social", "3", "alice")
	require.NoError(t, err)

	infos, err := svc.ListEnabledLeaves("alice")
	require.NoError(t, err)

	numbers := make([]string, len(infos))
	for i, info := range infos {
		numbers[i] = info.Number
	}
	assert.Contains(t, numbers, "301")
	assert.NotContains(t, numbers, "3", "an account with a child is no longer a leaf")
}

func TestListEnabledLeaves_ExcludesDisabled(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SwitchDisable("110101", "alice")
	require.NoError(t, err)

	infos, err := svc.ListEnabledLeaves("alice")
	require.NoError(t, err)
	for _, info := range infos {
		assert.NotEqual(t, "110101", info.Number)
	}
}

func TestLookups_RecordSearchAudit(t *testing.T) {
	svc, db := newTestService(t)

	countAudit := func(action string) int {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM audit_log WHERE action = ?`, action).Scan(&n))
		return n
	}

	_, err := svc.GetByNumber("110101", "alice")
	require.NoError(t, err)
	_, err = svc.List(1, 10, "alice")
	require.NoError(t, err)
	_, err = svc.ListEnabledLeaves("alice")
	require.NoError(t, err)
	assert.Equal(t, 3, countAudit(auditlog.AccountSearchSuccess))

	_, err = svc.GetByNumber("424242", "alice")
	require.Error(t, err)
	assert.Equal(t, 1, countAudit(auditlog.AccountSearchError))
}

func TestList_Paged(t *testing.T) {
	svc, _ := newTestService(t)

	page1, err := svc.List(1, 5, "alice")
	require.NoError(t, err)
	assert.Len(t, page1.Items, 5)
	assert.Equal(t, 13, page1.TotalItems)
	assert.Equal(t, 3, page1.TotalPages)
	assert.True(t, page1.HasNextPage)
	assert.False(t, page1.HasPreviousPage)
	assert.Equal(t, "0", page1.Items[0].Number, "ordered by account number")

	page3, err := svc.List(3, 5, "alice")
	require.NoError(t, err)
	assert.Len(t, page3.Items, 3)
	assert.False(t, page3.HasNextPage)
	assert.True(t, page3.HasPreviousPage)
}
