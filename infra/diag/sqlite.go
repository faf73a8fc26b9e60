package diag

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists diagnostics to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS diagnostics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER NOT NULL,
        kind TEXT NOT NULL,
        subject TEXT,
        client_id TEXT,
        success INTEGER,
        skipped INTEGER,
        code INTEGER,
        error TEXT,
        duration_ms INTEGER
    );
    CREATE INDEX IF NOT EXISTS diagnostics_kind_ts ON diagnostics (kind, ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnostics (ts, kind, subject, client_id, success, skipped, code, error, duration_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Time.UnixNano(), rec.Kind, rec.Subject, rec.ClientID, rec.Success, rec.Skipped,
		rec.Code, rec.Error, rec.DurationMS)
	return err
}

// Query returns records matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT id, ts, kind, subject, client_id, success, skipped, code, error, duration_ms
        FROM diagnostics WHERE 1=1`
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, q.Kind)
	}
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.UnixNano())
	}
	query += ` ORDER BY ts DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []Record
	for rows.Next() {
		var (
			id int64
			ts int64
			r  Record
		)
		if err := rows.Scan(&id, &ts, &r.Kind, &r.Subject, &r.ClientID, &r.Success, &r.Skipped,
			&r.Code, &r.Error, &r.DurationMS); err != nil {
			return nil, err
		}
		r.Time = time.Unix(0, ts)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
