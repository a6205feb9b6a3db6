package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveChildNumber_FirstChild(t *testing.T) {
	db := openTestDB(t)

	// "3" is seeded without children.
	number, err := DeriveChildNumber(db, "3")
	require.NoError(t, err)
	assert.Equal(t, "301", number)
}

func TestDeriveChildNumber_Increments(t *testing.T) {
	db := openTestDB(t)

	// "1101" already has children 01 and 02.
	number, err := DeriveChildNumber(db, "1101")
	require.NoError(t, err)
	assert.Equal(t, "110103", number)
}

func TestDeriveChildNumber_UnknownParent(t *testing.T) {
	db := openTestDB(t)

	_, err := DeriveChildNumber(db, "9999")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeriveChildNumber_MalformedSibling(t *testing.T) {
	db := openTestDB(t)

	// Plant a child whose suffix does not parse. Deriving must fail loudly
	// instead of reissuing "01".
	_, err := db.Exec(`
		INSERT INTO accounts (account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by)
		VALUES ('3XX', 'Broken', 'Haber', 1, 0, '3', 'tester', 'tester')`)
	require.NoError(t, err)

	_, err = DeriveChildNumber(db, "3")
	assert.ErrorIs(t, err, ErrBadSiblingNumber)
}

func TestDeriveChildNumber_Exhausted(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`
		INSERT INTO accounts (account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by)
		VALUES ('399', 'Last', 'Haber', 1, 0, '3', 'tester', 'tester')`)
	require.NoError(t, err)

	_, err = DeriveChildNumber(db, "3")
	assert.ErrorIs(t, err, ErrNumberSpaceExhausted)
}
