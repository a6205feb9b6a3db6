// Package ledger is the posting engine: it validates proposed journal
// entries, persists them atomically, applies balance deltas, and recomputes
// ancestor balances.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/auditlog"
	"github.com/bookkeep-dev/bookkeep/internal/chart"
	"github.com/bookkeep-dev/bookkeep/internal/model"
	"github.com/bookkeep-dev/bookkeep/internal/pagination"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

const dateLayout = "2006-01-02"

var (
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEntryNotEditable means the entry was already written off; that
	// state is terminal.
	ErrEntryNotEditable = errors.New("entry is no longer editable")
	// ErrPostingFailed is the generic failure surfaced when the posting
	// transaction itself failed. Details go to the log, not the caller.
	ErrPostingFailed = errors.New("posting failed")
)

// Service orchestrates entry creation, editing, and reversal.
type Service struct {
	db     *storage.DB
	audit  auditlog.Recorder
	logger *slog.Logger
}

// NewService creates a posting Service. A nil logger falls back to
// slog.Default.
func NewService(db *storage.DB, audit auditlog.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, audit: audit, logger: logger}
}

// CreateParams holds a proposed journal entry.
type CreateParams struct {
	Date        time.Time
	Description string
	Debits      []Line
	Credits     []Line
	UserID      string
}

// CreateEntry validates and posts a new entry. The entry, its detail lines,
// and the touched balance cells commit in one transaction; ancestor
// balances are then recomputed best-effort.
func (s *Service) CreateEntry(p CreateParams) (model.Entry, error) {
	var entry model.Entry
	err := s.db.Transaction(func(tx *sql.Tx) error {
		if err := ValidateEntry(tx, p.Debits, p.Credits); err != nil {
			return err
		}

		res, err := tx.Exec(`
			INSERT INTO entries (entry_date, description, is_editable, created_by, updated_by)
			VALUES (?, ?, 1, ?, ?)`,
			p.Date.Format(dateLayout), p.Description, p.UserID, p.UserID)
		if err != nil {
			return fmt.Errorf("inserting entry: %w", err)
		}
		number, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading entry number: %w", err)
		}

		entry = model.Entry{
			Number:      number,
			Date:        p.Date,
			Description: p.Description,
			Editable:    true,
			CreatedBy:   p.UserID,
			UpdatedBy:   p.UserID,
		}

		lines := make([]Line, 0, len(p.Debits)+len(p.Credits))
		lines = append(lines, p.Debits...)
		lines = append(lines, p.Credits...)
		for _, line := range lines {
			detail, err := s.postLine(tx, number, line, p.Date, p.UserID)
			if err != nil {
				return err
			}
			entry.Details = append(entry.Details, detail)
		}
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.EntryAddError, p.UserID)
		var verr *ValidationError
		if errors.As(err, &verr) {
			return model.Entry{}, err
		}
		s.logger.Error("creating entry", "user", p.UserID, "error", err)
		return model.Entry{}, ErrPostingFailed
	}

	s.propagateTouched(entry)
	s.audit.Record(auditlog.EntryAddSuccess, p.UserID)
	return entry, nil
}

// EditEntry updates an entry's description. Balances are untouched, so no
// propagation follows.
func (s *Service) EditEntry(number int64, description, userID string) (model.Entry, error) {
	var entry model.Entry
	err := s.db.Transaction(func(tx *sql.Tx) error {
		e, err := loadEntry(tx, number)
		if err != nil {
			return err
		}
		if !e.Editable {
			return fmt.Errorf("entry %d: %w", number, ErrEntryNotEditable)
		}

		_, err = tx.Exec(`
			UPDATE entries SET description = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
			WHERE entry_number = ?`, description, userID, number)
		if err != nil {
			return fmt.Errorf("updating entry %d: %w", number, err)
		}

		e.Description = description
		e.UpdatedBy = userID
		entry = e
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.EntryUpdateError, userID)
		if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrEntryNotEditable) {
			return model.Entry{}, err
		}
		s.logger.Error("editing entry", "entry", number, "user", userID, "error", err)
		return model.Entry{}, ErrPostingFailed
	}
	s.audit.Record(auditlog.EntryUpdateSuccess, userID)
	return entry, nil
}

// WriteOff reverses an entry by posting a new linked entry whose lines
// mirror the original with flipped positions. The original's cells are not
// rewritten; the offsetting amounts net the change out. Both entries end up
// non-editable.
func (s *Service) WriteOff(number int64, userID string) (model.Entry, error) {
	var reversal model.Entry
	err := s.db.Transaction(func(tx *sql.Tx) error {
		orig, err := loadEntry(tx, number)
		if err != nil {
			return err
		}
		if !orig.Editable {
			return fmt.Errorf("entry %d: %w", number, ErrEntryNotEditable)
		}

		_, err = tx.Exec(`
			UPDATE entries SET is_editable = 0, updated_by = ?, updated_at = CURRENT_TIMESTAMP
			WHERE entry_number = ?`, userID, number)
		if err != nil {
			return fmt.Errorf("locking entry %d: %w", number, err)
		}

		// Same date as the original so the offset lands in the same
		// balance cells.
		desc := fmt.Sprintf("Write-off of entry %d: %s", orig.Number, orig.Description)
		res, err := tx.Exec(`
			INSERT INTO entries (entry_date, description, is_editable, reversal_of, created_by, updated_by)
			VALUES (?, ?, 0, ?, ?, ?)`,
			orig.Date.Format(dateLayout), desc, orig.Number, userID, userID)
		if err != nil {
			return fmt.Errorf("inserting reversal of %d: %w", number, err)
		}
		revNumber, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading reversal number: %w", err)
		}

		reversal = model.Entry{
			Number:      revNumber,
			Date:        orig.Date,
			Description: desc,
			Editable:    false,
			ReversalOf:  orig.Number,
			CreatedBy:   userID,
			UpdatedBy:   userID,
		}

		for _, d := range orig.Details {
			line := Line{
				AccountNumber: d.AccountNumber,
				Position:      d.Position.Flip(),
				Amount:        d.Amount,
			}
			detail, err := s.postLine(tx, revNumber, line, orig.Date, userID)
			if err != nil {
				return err
			}
			reversal.Details = append(reversal.Details, detail)
		}
		return nil
	})
	if err != nil {
		s.audit.Record(auditlog.EntryReversedError, userID)
		if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrEntryNotEditable) {
			return model.Entry{}, err
		}
		s.logger.Error("reversing entry", "entry", number, "user", userID, "error", err)
		return model.Entry{}, ErrPostingFailed
	}

	s.propagateTouched(reversal)
	s.audit.Record(auditlog.EntryReversedSuccess, userID)
	return reversal, nil
}

// GetEntry returns one entry with its detail lines. The lookup is recorded
// against userID in the audit trail.
func (s *Service) GetEntry(number int64, userID string) (model.Entry, error) {
	entry, err := loadEntry(s.db, number)
	if err != nil {
		s.audit.Record(auditlog.EntrySearchError, userID)
		return model.Entry{}, err
	}
	s.audit.Record(auditlog.EntrySearchSuccess, userID)
	return entry, nil
}

// ListEntries returns one page of entries, newest first.
func (s *Service) ListEntries(page, size int, userID string) (pagination.Page[model.Entry], error) {
	return s.listEntriesAudited(page, size, "", nil, userID)
}

// ListEntriesByDate returns one page of entries dated within [from, to],
// newest first.
func (s *Service) ListEntriesByDate(from, to time.Time, page, size int, userID string) (pagination.Page[model.Entry], error) {
	return s.listEntriesAudited(page, size,
		` WHERE entry_date >= ? AND entry_date <= ?`,
		[]any{from.Format(dateLayout), to.Format(dateLayout)}, userID)
}

func (s *Service) listEntriesAudited(page, size int, where string, args []any, userID string) (pagination.Page[model.Entry], error) {
	result, err := s.listEntries(page, size, where, args)
	if err != nil {
		s.audit.Record(auditlog.EntrySearchError, userID)
		return pagination.Page[model.Entry]{}, err
	}
	s.audit.Record(auditlog.EntrySearchSuccess, userID)
	return result, nil
}

func (s *Service) listEntries(page, size int, where string, args []any) (pagination.Page[model.Entry], error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`+where, args...).Scan(&total); err != nil {
		return pagination.Page[model.Entry]{}, fmt.Errorf("counting entries: %w", err)
	}

	query := `
		SELECT entry_number, entry_date, description, is_editable, reversal_of, created_by, updated_by
		FROM entries` + where + `
		ORDER BY entry_number DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, append(args, size, pagination.Offset(page, size))...)
	if err != nil {
		return pagination.Page[model.Entry]{}, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return pagination.Page[model.Entry]{}, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[model.Entry]{}, fmt.Errorf("reading entries: %w", err)
	}

	for i := range entries {
		details, err := loadDetails(s.db, entries[i].Number)
		if err != nil {
			return pagination.Page[model.Entry]{}, err
		}
		entries[i].Details = details
	}
	return pagination.New(entries, page, size, total), nil
}

// postLine inserts one detail row and applies its balance delta.
func (s *Service) postLine(tx *sql.Tx, entryNumber int64, line Line, date time.Time, userID string) (model.EntryDetail, error) {
	res, err := tx.Exec(`
		INSERT INTO entry_details (entry_number, account_number, entry_position, amount, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entryNumber, line.AccountNumber, string(line.Position), line.Amount.String(), userID, userID)
	if err != nil {
		return model.EntryDetail{}, fmt.Errorf("inserting detail for %s: %w", line.AccountNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.EntryDetail{}, fmt.Errorf("reading detail id: %w", err)
	}

	acct, err := chart.GetAccount(tx, line.AccountNumber)
	if err != nil {
		return model.EntryDetail{}, err
	}
	if err := applyToBalance(tx, acct, date.Year(), int(date.Month()), line.Position, line.Amount, userID); err != nil {
		return model.EntryDetail{}, err
	}

	return model.EntryDetail{
		ID:            id,
		EntryNumber:   entryNumber,
		AccountNumber: line.AccountNumber,
		Position:      line.Position,
		Amount:        line.Amount,
	}, nil
}

// propagateTouched recomputes ancestors for each distinct account in the
// entry. Failures are logged only — the entry already committed, and a
// later posting or corrective pass recomputes the same cells from scratch.
func (s *Service) propagateTouched(entry model.Entry) {
	year, month := entry.Date.Year(), int(entry.Date.Month())
	done := make(map[string]bool)
	for _, d := range entry.Details {
		if done[d.AccountNumber] {
			continue
		}
		done[d.AccountNumber] = true
		if err := s.Propagate(d.AccountNumber, year, month, entry.UpdatedBy); err != nil {
			s.logger.Error("propagating balances",
				"entry", entry.Number, "account", d.AccountNumber,
				"year", year, "month", month, "error", err)
		}
	}
}

func loadEntry(q storage.Querier, number int64) (model.Entry, error) {
	row := q.QueryRow(`
		SELECT entry_number, entry_date, description, is_editable, reversal_of, created_by, updated_by
		FROM entries WHERE entry_number = ?`, number)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entry{}, fmt.Errorf("entry %d: %w", number, ErrEntryNotFound)
	}
	if err != nil {
		return model.Entry{}, err
	}

	details, err := loadDetails(q, number)
	if err != nil {
		return model.Entry{}, err
	}
	e.Details = details
	return e, nil
}

func loadDetails(q storage.Querier, entryNumber int64) ([]model.EntryDetail, error) {
	rows, err := q.Query(`
		SELECT id, entry_number, account_number, entry_position, amount
		FROM entry_details WHERE entry_number = ?
		ORDER BY id`, entryNumber)
	if err != nil {
		return nil, fmt.Errorf("loading details of entry %d: %w", entryNumber, err)
	}
	defer rows.Close()

	var details []model.EntryDetail
	for rows.Next() {
		var d model.EntryDetail
		var pos, amount string
		if err := rows.Scan(&d.ID, &d.EntryNumber, &d.AccountNumber, &pos, &amount); err != nil {
			return nil, fmt.Errorf("scanning detail of entry %d: %w", entryNumber, err)
		}
		d.Position = model.Position(pos)
		d.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q of entry %d: %w", amount, entryNumber, err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.Entry, error) {
	var e model.Entry
	var date string
	var editable int
	var reversalOf sql.NullInt64
	err := row.Scan(&e.Number, &date, &e.Description, &editable, &reversalOf, &e.CreatedBy, &e.UpdatedBy)
	if err != nil {
		return model.Entry{}, err
	}
	e.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q of entry %d: %w", date, e.Number, err)
	}
	e.Editable = editable != 0
	e.ReversalOf = reversalOf.Int64
	return e, nil
}
