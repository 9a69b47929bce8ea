// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/mqmon/internal/ports/secondary"
)

// HandleLedger implements secondary.HandleLedger with SQLite.
type HandleLedger struct {
	db  *sql.DB
	now func() time.Time
}

// NewHandleLedger creates a new SQLite handle ledger.
func NewHandleLedger(db *sql.DB) *HandleLedger {
	return &HandleLedger{db: db, now: time.Now}
}

// Record appends a handle, superseding the active record of the same
// source and role. An identical active record is left as is and its
// identity is copied into record.
func (r *HandleLedger) Record(ctx context.Context, record *secondary.HandleRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		id        int64
		name, uri string
		createdAt string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, name, uri, created_at FROM handles WHERE source = ? AND role = ? ORDER BY id DESC LIMIT 1",
		record.Source, record.Role,
	).Scan(&id, &name, &uri, &createdAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to get active handle: %w", err)
	case name == record.Name && uri == record.URI:
		record.ID = id
		record.CreatedAt, err = parseTime(createdAt)
		record.SupersededAt = nil
		return err
	}

	now := r.now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO handles (source, role, name, uri, created_at) VALUES (?, ?, ?, ?, ?)",
		record.Source, record.Role, record.Name, record.URI, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record handle: %w", err)
	}
	if record.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get handle id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit handle: %w", err)
	}

	record.CreatedAt = now
	record.SupersededAt = nil
	return nil
}

// A record is superseded at the creation time of the next record for the
// same source and role.
const listQuery = `
SELECT h.id, h.source, h.role, h.name, h.uri, h.created_at,
	(SELECT n.created_at FROM handles n
		WHERE n.source = h.source AND n.role = h.role AND n.id > h.id
		ORDER BY n.id LIMIT 1) AS superseded_at
FROM handles h`

// List returns records matching filters, newest first.
func (r *HandleLedger) List(ctx context.Context, filters secondary.HandleFilters) ([]*secondary.HandleRecord, error) {
	query := listQuery
	var (
		where []string
		args  []any
	)
	if filters.Source != "" {
		where = append(where, "h.source = ?")
		args = append(args, filters.Source)
	}
	if filters.Role != "" {
		where = append(where, "h.role = ?")
		args = append(args, filters.Role)
	}
	if filters.ActiveOnly {
		where = append(where, "NOT EXISTS (SELECT 1 FROM handles n WHERE n.source = h.source AND n.role = h.role AND n.id > h.id)")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY h.id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list handles: %w", err)
	}
	defer rows.Close()

	var records []*secondary.HandleRecord
	for rows.Next() {
		var (
			createdAt    string
			supersededAt sql.NullString
		)
		record := &secondary.HandleRecord{}
		if err := rows.Scan(&record.ID, &record.Source, &record.Role, &record.Name, &record.URI, &createdAt, &supersededAt); err != nil {
			return nil, fmt.Errorf("failed to scan handle: %w", err)
		}
		if record.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if supersededAt.Valid {
			t, err := parseTime(supersededAt.String)
			if err != nil {
				return nil, err
			}
			record.SupersededAt = &t
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate handles: %w", err)
	}

	return records, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid handle timestamp %q: %w", s, err)
	}
	return t, nil
}

// Ensure HandleLedger implements the interface
var _ secondary.HandleLedger = (*HandleLedger)(nil)
