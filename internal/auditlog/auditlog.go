// Package auditlog records who did what against the books. Recording is
// fire-and-forget: a failed write never affects the outcome of the
// operation being recorded.
package auditlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bookkeep-dev/bookkeep/internal/pagination"
	"github.com/bookkeep-dev/bookkeep/internal/storage"
)

// Recorder is the audit sink consumed by the services.
type Recorder interface {
	Record(action, userID string)
}

// Record is one audit row.
type Record struct {
	ID       int64
	LoggedAt time.Time
	Action   string
	UserID   string
}

// Log writes audit records to the audit_log table.
type Log struct {
	db     *storage.DB
	logger *slog.Logger
}

// New creates a Log. A nil logger falls back to slog.Default.
func New(db *storage.DB, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{db: db, logger: logger}
}

// Record inserts an audit row. Failures are logged and swallowed.
func (l *Log) Record(action, userID string) {
	_, err := l.db.Exec(`INSERT INTO audit_log (action, user_id) VALUES (?, ?)`, action, userID)
	if err != nil {
		l.logger.Error("recording audit action", "action", action, "user", userID, "error", err)
	}
}

// List returns one page of audit records, newest first.
func (l *Log) List(page, size int) (pagination.Page[Record], error) {
	var total int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return pagination.Page[Record]{}, fmt.Errorf("counting audit records: %w", err)
	}

	rows, err := l.db.Query(`
		SELECT id, logged_at, action, user_id
		FROM audit_log
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, size, pagination.Offset(page, size))
	if err != nil {
		return pagination.Page[Record]{}, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.LoggedAt, &r.Action, &r.UserID); err != nil {
			return pagination.Page[Record]{}, fmt.Errorf("scanning audit record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[Record]{}, fmt.Errorf("reading audit records: %w", err)
	}

	return pagination.New(records, page, size, total), nil
}
