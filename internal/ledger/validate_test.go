package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkeep-dev/bookkeep/internal/model"
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

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func debit(account, amount string) Line {
	return Line{AccountNumber: account, Position: model.PositionDebit, Amount: dec(amount)}
}

func credit(account, amount string) Line {
	return Line{AccountNumber: account, Position: model.PositionCredit, Amount: dec(amount)}
}

func reason(t *testing.T, err error) Reason {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Reason
}

func TestValidateEntry_Valid(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db,
		[]Line{debit("110101", "500.00")},
		[]Line{credit("210101", "500.00")})
	assert.NoError(t, err)
}

func TestValidateEntry_MultiLine(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db,
		[]Line{debit("110101", "300.00"), debit("110102", "200.00")},
		[]Line{credit("210101", "500.00")})
	assert.NoError(t, err)
}

func TestValidateEntry_UnknownAccount(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db,
		[]Line{debit("424242", "500.00")},
		[]Line{credit("210101", "500.00")})
	assert.Equal(t, ReasonUnknownAccount, reason(t, err))
}

func TestValidateEntry_NonLeafNotPostable(t *testing.T) {
	db := openTestDB(t)

	// "1101" has children so it does not allow movement.
	err := ValidateEntry(db,
		[]Line{debit("1101", "500.00")},
		[]Line{credit("210101", "500.00")})
	assert.Equal(t, ReasonNotPostable, reason(t, err))
}

func TestValidateEntry_DisabledNotPostable(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`UPDATE accounts SET is_disabled = 1 WHERE account_number = '110101'`)
	require.NoError(t, err)

	err = ValidateEntry(db,
		[]Line{debit("110101", "500.00")},
		[]Line{credit("210101", "500.00")})
	assert.Equal(t, ReasonNotPostable, reason(t, err))
}

func TestValidateEntry_WrongPosition(t *testing.T) {
	db := openTestDB(t)

	// A credit-marked line in the debit group.
	err := ValidateEntry(db,
		[]Line{credit("110101", "500.00")},
		[]Line{credit("210101", "500.00")})
	assert.Equal(t, ReasonInvalidLineData, reason(t, err))
}

func TestValidateEntry_NonPositiveAmount(t *testing.T) {
	db := openTestDB(t)

	for _, amount := range []string{"0", "-500.00"} {
		err := ValidateEntry(db,
			[]Line{debit("110101", amount)},
			[]Line{credit("210101", amount)})
		assert.Equal(t, ReasonInvalidLineData, reason(t, err), "amount %s", amount)
	}
}

func TestValidateEntry_Unbalanced(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db,
		[]Line{debit("110101", "500.00")},
		[]Line{credit("210101", "499.99")})
	assert.Equal(t, ReasonUnbalanced, reason(t, err))
}

func TestValidateEntry_DuplicateAccount(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db,
		[]Line{debit("110101", "500.00")},
		[]Line{credit("110101", "500.00")})
	assert.Equal(t, ReasonDuplicateAccount, reason(t, err))
}

func TestValidateEntry_Empty(t *testing.T) {
	db := openTestDB(t)

	err := ValidateEntry(db, nil, nil)
	assert.Equal(t, ReasonInvalidLineData, reason(t, err))
}

func TestValidateEntry_StoreErrorIsNotAVerdict(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`DROP TABLE accounts`)
	require.NoError(t, err)

	err = ValidateEntry(db,
		[]Line{debit("110101", "500.00")},
		[]Line{credit("210101", "500.00")})
	require.Error(t, err)

	// A store failure must not masquerade as a rejected entry.
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidateEntry_FirstFailureWins(t *testing.T) {
	db := openTestDB(t)

	// Unknown account and unbalanced totals: the existence check runs first.
	err := ValidateEntry(db,
		[]Line{debit("424242", "500.00")},
		[]Line{credit("210101", "10.00")})
	assert.Equal(t, ReasonUnknownAccount, reason(t, err))
}
