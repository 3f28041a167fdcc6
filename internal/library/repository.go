package library

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateMedia(ctx context.Context, item *MediaItem) error
	GetMedia(ctx context.Context, id string) (*MediaItem, error)
	ListMedia(ctx context.Context) ([]*MediaItem, error)
	UpdateMediaBinary(ctx context.Context, id, name, path string, duration float64, size int64) error
	UpdateMediaThumbnail(ctx context.Context, id, thumbnail string) error
	DeleteMedia(ctx context.Context, id string) error
	CountMedia(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *ProcessingJob) error
	GetJob(ctx context.Context, id string) (*ProcessingJob, error)
	ListJobs(ctx context.Context, limit int) ([]*ProcessingJob, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateMedia(ctx context.Context, m *MediaItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_items (id, name, kind, duration, size, path, thumbnail, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Kind, m.Duration, m.Size, m.Path, nullString(m.Thumbnail), m.ImportedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetMedia(ctx context.Context, id string) (*MediaItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, duration, size, path, thumbnail, imported_at
		FROM media_items WHERE id = ?
	`, id)
	return r.scanMedia(row)
}

func (r *SQLiteRepository) scanMedia(row *sql.Row) (*MediaItem, error) {
	var m MediaItem
	var thumbnail sql.NullString
	var importedAt string

	err := row.Scan(&m.ID, &m.Name, &m.Kind, &m.Duration, &m.Size, &m.Path, &thumbnail, &importedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Thumbnail = thumbnail.String
	m.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
	return &m, nil
}

func (r *SQLiteRepository) ListMedia(ctx context.Context) ([]*MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, duration, size, path, thumbnail, imported_at
		FROM media_items ORDER BY imported_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MediaItem
	for rows.Next() {
		var m MediaItem
		var thumbnail sql.NullString
		var importedAt string

		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Duration, &m.Size, &m.Path, &thumbnail, &importedAt); err != nil {
			return nil, err
		}
		m.Thumbnail = thumbnail.String
		m.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) UpdateMediaBinary(ctx context.Context, id, name, path string, duration float64, size int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE media_items SET name = ?, path = ?, duration = ?, size = ? WHERE id = ?
	`, name, path, duration, size, id)
	return err
}

func (r *SQLiteRepository) UpdateMediaThumbnail(ctx context.Context, id, thumbnail string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE media_items SET thumbnail = ? WHERE id = ?
	`, nullString(thumbnail), id)
	return err
}

func (r *SQLiteRepository) DeleteMedia(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_items WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountMedia(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_items").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *ProcessingJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processing_jobs (id, media_id, operation, status, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.MediaID, j.Operation, j.Status, j.Progress, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, media_id, operation, status, progress, error, created_at, updated_at
		FROM processing_jobs WHERE id = ?
	`, id)

	var j ProcessingJob
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.MediaID, &j.Operation, &j.Status, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*ProcessingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, media_id, operation, status, progress, error, created_at, updated_at
		FROM processing_jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*ProcessingJob
	for rows.Next() {
		var j ProcessingJob
		var errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.MediaID, &j.Operation, &j.Status, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
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
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
