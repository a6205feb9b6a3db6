// Package chart owns the hierarchical chart of accounts: account nodes,
// parent/child links, numbering, and enable/disable state.
package chart

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/auditlog"
	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/pagination"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrDuplicateName   = errors.New("an account with this name already exists under the parent")
	ErrCannotDisable   = errors.New("account has a balance or enabled children and cannot be disabled")
	ErrRootAccount     = errors.New("the root account cannot be modified")
	// ErrBehaviorNotInheritable means the parent carries the sentinel
	// behavior type, which no postable account may inherit.
	ErrBehaviorNotInheritable = errors.New("parent behavior type is not inheritable")
)

// AccountInfo is an account plus the read-side fields listings carry: the
// parent's display name and the balance for the current month.
type AccountInfo struct {
	model.Account
	ParentName string
	Balance    decimal.Decimal
}

// Service provides chart-of-accounts operations over the backing store.
type Service struct {
	db    *storage.DB
	audit auditlog.Recorder
	now   func() time.Time
}

// NewService creates a chart Service.
func NewService(db *storage.DB, audit auditlog.Recorder) *Service {
	return &Service{db: db, audit: audit, now: time.Now}
}

// GetByNumber returns one account with its current-month balance. Disabled
// accounts are not served. The lookup is recorded against userID in the
// audit trail.
func (s *Service) GetByNumber(number, userID string) (AccountInfo, error) {
	info, err := s.getByNumber(number)
	if err != nil {
		s.audit.Record(auditlog.AccountSearchError, userID)
		return AccountInfo{}, err
	}
	s.audit.Record(auditlog.AccountSearchSuccess, userID)
	return info, nil
}

func (s *Service) getByNumber(number string) (AccountInfo, error) {
	acct, err := GetAccount(s.db, number)
	if err != nil {
		return AccountInfo{}, err
	}
	if acct.Disabled {
		return AccountInfo{}, fmt.Errorf("account %s: %w", number, ErrAccountDisabled)
	}
	return s.accountInfo(acct)
}

// List returns one page of the chart ordered by account number.
func (s *Service) List(page, size int, userID string) (pagination.Page[AccountInfo], error) {
	result, err := s.list(page, size)
	if err != nil {
		s.audit.Record(auditlog.AccountSearchError, userID)
		return pagination.Page[AccountInfo]{}, err
	}
	s.audit.Record(auditlog.AccountSearchSuccess, userID)
	return result, nil
}

func (s *Service) list(page, size int) (pagination.Page[AccountInfo], error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return pagination.Page[AccountInfo]{}, fmt.Errorf("counting accounts: %w", err)
	}

	accts, err := queryAccounts(s.db, `
		SELECT account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by
		FROM accounts
		ORDER BY account_number
		LIMIT ? OFFSET ?`, size, pagination.Offset(page, size))
	if err != nil {
		return pagination.Page[AccountInfo]{}, err
	}

	infos := make([]AccountInfo, 0, len(accts))
	for _, a := range accts {
		info, err := s.accountInfo(a)
		if err != nil {
			return pagination.Page[AccountInfo]{}, err
		}
		infos = append(infos, info)
	}
	return pagination.New(infos, page, size, total), nil
}

// ListEnabledLeaves returns every postable account: enabled, allowing
// movement, and not currently any other account's parent. Leaf-ness is
// recomputed from the parent links on each read rather than trusted from
// the stored flag.
func (s *Service) ListEnabledLeaves(userID string) ([]AccountInfo, error) {
	infos, err := s.listEnabledLeaves()
	if err != nil {
		s.audit.Record(auditlog.AccountSearchError, userID)
		return nil, err
	}
	s.audit.Record(auditlog.AccountSearchSuccess, userID)
	return infos, nil
}

func (s *Service) listEnabledLeaves() ([]AccountInfo, error) {
	accts, err := queryAccounts(s.db, `
		SELECT account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by
		FROM accounts
		WHERE allows_movement = 1
		  AND is_disabled = 0
		  AND account_number NOT IN (
			SELECT DISTINCT parent_account_number FROM accounts
			WHERE parent_account_number IS NOT NULL
		  )
		ORDER BY account_number`)
	if err != nil {
		return nil, err
	}

	infos := make([]AccountInfo, 0, len(accts))
	for _, a := range accts {
		info, err := s.accountInfo(a)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Create adds a child account under parentNumber. The child's number is
// derived from the parent's, its behavior type is inherited, and it starts
// enabled and postable with a zero balance cell for the current month.
// Creating the first child flips the parent to non-postable.
func (s *Service) Create(name, parentNumber, userID string) (model.Account, error) {
	var created model.Account
	err := s.db.Transaction(func(tx *sql.Tx) error {
		parent, err := GetAccount(tx, parentNumber)
		if err != nil {
			return fmt.Errorf("parent %s: %w", parentNumber, err)
		}
		// Top-level classes are seeded, not created through this path:
		// the root carries the sentinel behavior, and a child always
		// inherits its parent's behavior.
		if parent.Behavior == model.BehaviorNone {
			return ErrBehaviorNotInheritable
		}

		var dup int
		err = tx.QueryRow(`SELECT COUNT(*) FROM accounts WHERE parent_account_number = ? AND name = ?`,
			parentNumber, name).Scan(&dup)
		if err != nil {
			return fmt.Errorf("checking sibling names: %w", err)
		}
		if dup > 0 {
			return fmt.Errorf("name %q under %s: %w", name, parentNumber, ErrDuplicateName)
		}

		number, err := DeriveChildNumber(tx, parentNumber)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO accounts (account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by)
			VALUES (?, ?, ?, 1, 0, ?, ?, ?)`,
			number, name, string(parent.Behavior), parentNumber, userID, userID)
		if err != nil {
			return fmt.Errorf("inserting account %s: %w", number, err)
		}

		// New accounts always start at zero. Moving balance down from the
		// parent is done with an explicit transfer entry, never implicitly.
		now := s.now()
		_, err = tx.Exec(`
			INSERT INTO account_balances (account_number, year, month, balance, created_by, updated_by)
			VALUES (?, ?, ?, '0', ?, ?)`,
			number, now.Year(), int(now.Month()), userID, userID)
		if err != nil {
			return fmt.Errorf("seeding balance for %s: %w", number, err)
		}

		if parent.AllowsMovement {
			_, err = tx.Exec(`
				UPDATE accounts SET allows_movement = 0, updated_by = ?, updated_at = CURRENT_TIMESTAMP
				WHERE account_number = ?`, userID, parentNumber)
			if err != nil {
				return fmt.Errorf("closing parent %s to movement: %w", parentNumber, err)
			}
		}

		created = model.Account{
			Number:         number,
			Name:           name,
			Behavior:       parent.Behavior,
			AllowsMovement: true,
			ParentNumber:   parentNumber,
			CreatedBy:      userID,
			UpdatedBy:      userID,
		}
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.AccountAddError, userID)
		return model.Account{}, err
	}
	s.audit.Record(auditlog.AccountAddSuccess, userID)
	return created, nil
}

// Rename changes an account's display name. Disabled accounts and the root
// cannot be renamed.
func (s *Service) Rename(number, name, userID string) (model.Account, error) {
	var renamed model.Account
	err := s.db.Transaction(func(tx *sql.Tx) error {
		acct, err := GetAccount(tx, number)
		if err != nil {
			return err
		}
		if acct.IsRoot() {
			return ErrRootAccount
		}
		if acct.Disabled {
			return fmt.Errorf("account %s: %w", number, ErrAccountDisabled)
		}

		_, err = tx.Exec(`
			UPDATE accounts SET name = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
			WHERE account_number = ?`, name, userID, number)
		if err != nil {
			return fmt.Errorf("renaming account %s: %w", number, err)
		}

		acct.Name = name
		acct.UpdatedBy = userID
		renamed = acct
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.AccountUpdateError, userID)
		return model.Account{}, err
	}
	s.audit.Record(auditlog.AccountUpdateSuccess, userID)
	return renamed, nil
}

// SwitchDisable toggles an account's disabled state. Re-enabling is
// unconditional. Disabling requires a zero balance across all months and
// either no children or only disabled zero-balance children.
func (s *Service) SwitchDisable(number, userID string) (model.Account, error) {
	var toggled model.Account
	var enabled bool
	err := s.db.Transaction(func(tx *sql.Tx) error {
		acct, err := GetAccount(tx, number)
		if err != nil {
			return err
		}
		if acct.IsRoot() {
			return ErrRootAccount
		}

		if acct.Disabled {
			if err := setDisabled(tx, number, false, userID); err != nil {
				return err
			}
			acct.Disabled = false
			acct.UpdatedBy = userID
			toggled, enabled = acct, true
			return nil
		}

		children, err := queryAccounts(tx, `
			SELECT account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by
			FROM accounts WHERE parent_account_number = ?`, number)
		if err != nil {
			return err
		}

		allowed := false
		if len(children) == 0 {
			total, err := sumBalances(tx, number)
			if err != nil {
				return err
			}
			allowed = total.IsZero()
		} else {
			allowed = true
			for _, c := range children {
				if !c.Disabled {
					allowed = false
					break
				}
				total, err := sumBalances(tx, c.Number)
				if err != nil {
					return err
				}
				if !total.IsZero() {
					allowed = false
					break
				}
			}
		}
		if !allowed {
			return fmt.Errorf("account %s: %w", number, ErrCannotDisable)
		}

		if err := setDisabled(tx, number, true, userID); err != nil {
			return err
		}
		acct.Disabled = true
		acct.UpdatedBy = userID
		toggled = acct
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.AccountDisableError, userID)
		return model.Account{}, err
	}
	if enabled {
		s.audit.Record(auditlog.AccountEnableSuccess, userID)
	} else {
		s.audit.Record(auditlog.AccountDisableSuccess, userID)
	}
	return toggled, nil
}

func (s *Service) accountInfo(acct model.Account) (AccountInfo, error) {
	info := AccountInfo{Account: acct, Balance: decimal.Zero}

	if acct.ParentNumber != "" {
		var name string
		err := s.db.QueryRow(`SELECT name FROM accounts WHERE account_number = ?`, acct.ParentNumber).Scan(&name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return AccountInfo{}, fmt.Errorf("loading parent name for %s: %w", acct.Number, err)
		}
		info.ParentName = name
	}

	now := s.now()
	balance, err := balanceFor(s.db, acct.Number, now.Year(), int(now.Month()))
	if err != nil {
		return AccountInfo{}, err
	}
	info.Balance = balance
	return info, nil
}

// GetAccount loads one account through q, which may be a transaction so
// that validation reads stay consistent with the writes beside them.
func GetAccount(q storage.Querier, number string) (model.Account, error) {
	row := q.QueryRow(`
		SELECT account_number, name, behavior_type, allows_movement, is_disabled, parent_account_number, created_by, updated_by
		FROM accounts WHERE account_number = ?`, number)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", number, ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %s: %w", number, err)
	}
	return acct, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var a model.Account
	var behavior string
	var allows, disabled int
	var parent sql.NullString
	err := row.Scan(&a.Number, &a.Name, &behavior, &allows, &disabled, &parent, &a.CreatedBy, &a.UpdatedBy)
	if err != nil {
		return model.Account{}, err
	}
	a.Behavior = model.Behavior(behavior)
	a.AllowsMovement = allows != 0
	a.Disabled = disabled != 0
	a.ParentNumber = parent.String
	return a, nil
}

func queryAccounts(q storage.Querier, query string, args ...any) ([]model.Account, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accts = append(accts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return accts, nil
}

func setDisabled(tx *sql.Tx, number string, disabled bool, userID string) error {
	val := 0
	if disabled {
		val = 1
	}
	_, err := tx.Exec(`
		UPDATE accounts SET is_disabled = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE account_number = ?`, val, userID, number)
	if err != nil {
		return fmt.Errorf("toggling account %s: %w", number, err)
	}
	return nil
}

// balanceFor returns an account's balance cell for one month, zero when the
// cell does not exist yet.
func balanceFor(q storage.Querier, number string, year, month int) (decimal.Decimal, error) {
	var raw string
	err := q.QueryRow(`
		SELECT balance FROM account_balances
		WHERE account_number = ? AND year = ? AND month = ?`, number, year, month).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading balance for %s %d-%02d: %w", number, year, month, err)
	}
	b, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing balance %q for %s: %w", raw, number, err)
	}
	return b, nil
}

// sumBalances adds an account's balance cells across every month.
func sumBalances(q storage.Querier, number string) (decimal.Decimal, error) {
	rows, err := q.Query(`SELECT balance FROM account_balances WHERE account_number = ?`, number)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing balances for %s: %w", number, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scanning balance for %s: %w", number, err)
		}
		b, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing balance %q for %s: %w", raw, number, err)
		}
		total = total.Add(b)
	}
	return total, rows.Err()
}
