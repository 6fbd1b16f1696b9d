package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/antibyte/retrocalc/pkg/logger"
)

// SQLiteStore keeps the history of one owner in the calc_history table.
// The schema is created by storage.CreateTables.
type SQLiteStore struct {
	db    *sql.DB
	owner string
	max   int
}

// NewSQLiteStore returns a store for owner's records.
func NewSQLiteStore(db *sql.DB, owner string, max int) *SQLiteStore {
	if max <= 0 {
		max = DefaultMaxRecords
	}
	return &SQLiteStore{db: db, owner: owner, max: max}
}

func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	r = ensureID(r)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO calc_history (id, owner, expression, result, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, s.owner, r.Expression, r.Result, r.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM calc_history
		WHERE owner = ? AND seq NOT IN (
			SELECT seq FROM calc_history WHERE owner = ? ORDER BY seq DESC LIMIT ?
		)
	`, s.owner, s.owner, s.max)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history record: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.HistoryDebug("trimmed %d old records for %s", n, s.owner)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expression, result, created_at
		FROM calc_history
		WHERE owner = ?
		ORDER BY seq DESC
		LIMIT ?
	`, s.owner, s.max)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created int64
		if err := rows.Scan(&r.ID, &r.Expression, &r.Result, &created); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		r.Timestamp = time.Unix(0, created)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calc_history WHERE owner = ?`, s.owner); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	logger.HistoryInfo("history cleared for %s", s.owner)
	return nil
}
