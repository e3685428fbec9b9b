package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	RenameProject(ctx context.Context, id, name string) error
	SaveDocument(ctx context.Context, id string, doc Document) error
	DeleteProject(ctx context.Context, id string) error

	CreateExport(ctx context.Context, e *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, projectID string, limit int) ([]*Export, error)
	UpdateExportStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateExportProgress(ctx context.Context, id string, progress int) error
	CompleteExport(ctx context.Context, id, outputPath string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Timestamps are written from Go rather than with datetime('now') so every
// row carries one format and ORDER BY updated_at stays meaningful.
func sqlNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	doc, err := EncodeDocument(p.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, string(doc), p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, document, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return r.scanProject(row)
}

func (r *SQLiteRepository) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var doc, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &doc, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Document, err = DecodeDocument([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, document, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var doc, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &doc, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Document, err = DecodeDocument([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) RenameProject(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, updated_at = ? WHERE id = ?
	`, name, sqlNow(), id)
	return err
}

func (r *SQLiteRepository) SaveDocument(ctx context.Context, id string, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects SET document = ?, name = ?, updated_at = ? WHERE id = ?
	`, string(data), doc.Name, sqlNow(), id)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *Export) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, project_id, format, status, progress, output_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Format, e.Status, e.Progress, e.OutputPath, e.Error,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*Export, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, format, status, progress, output_path, error, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)

	var e Export
	var createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.ProjectID, &e.Format, &e.Status, &e.Progress, &e.OutputPath, &e.Error, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func (r *SQLiteRepository) ListExports(ctx context.Context, projectID string, limit int) ([]*Export, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, project_id, format, status, progress, output_path, error, created_at, updated_at
		FROM exports`
	args := []any{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		var e Export
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Format, &e.Status, &e.Progress, &e.OutputPath, &e.Error, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		exports = append(exports, &e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) UpdateExportStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, errorMsg, sqlNow(), id)
	return err
}

func (r *SQLiteRepository) UpdateExportProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, sqlNow(), id)
	return err
}

// CompleteExport marks an export finished and records where the file landed.
func (r *SQLiteRepository) CompleteExport(ctx context.Context, id, outputPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, progress = 100, output_path = ?, error = '', updated_at = ? WHERE id = ?
	`, ExportStatusCompleted, outputPath, sqlNow(), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, sqlNow())
	return err
}
