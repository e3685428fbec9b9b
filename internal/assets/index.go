package assets

import (
	"context"
	"database/sql"
	"time"
)

// Index persists resolved cache entries so availability and probed
// durations survive an agent restart. The cache treats it as best-effort:
// a failing index degrades to purely in-memory behavior.
type Index interface {
	Load(ctx context.Context) ([]Entry, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, ref string) error
}

// SQLiteIndex keeps entries in the agent database's assets table.
type SQLiteIndex struct {
	db *sql.DB
}

func NewSQLiteIndex(db *sql.DB) *SQLiteIndex {
	return &SQLiteIndex{db: db}
}

func (i *SQLiteIndex) Load(ctx context.Context) ([]Entry, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT ref, availability, path, size, duration, error, resolved_at
		FROM assets
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var availability, resolvedAt string
		if err := rows.Scan(&e.Ref, &availability, &e.Path, &e.Size, &e.Duration, &e.Error, &resolvedAt); err != nil {
			return nil, err
		}
		e.Availability = Availability(availability)
		if t, err := time.Parse(time.RFC3339, resolvedAt); err == nil {
			e.ResolvedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (i *SQLiteIndex) Put(ctx context.Context, e Entry) error {
	_, err := i.db.ExecContext(ctx, `
		INSERT INTO assets (ref, availability, path, size, duration, error, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			availability = excluded.availability,
			path = excluded.path,
			size = excluded.size,
			duration = excluded.duration,
			error = excluded.error,
			resolved_at = excluded.resolved_at
	`, e.Ref, string(e.Availability), e.Path, e.Size, e.Duration, e.Error,
		e.ResolvedAt.UTC().Format(time.RFC3339))
	return err
}

func (i *SQLiteIndex) Delete(ctx context.Context, ref string) error {
	_, err := i.db.ExecContext(ctx, `DELETE FROM assets WHERE ref = ?`, ref)
	return err
}
