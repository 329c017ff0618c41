package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heimdex/clipforge/internal/timeline"
)

type Repository interface {
	SaveProject(ctx context.Context, p timeline.Project) error
	GetProject(ctx context.Context, id string) (*timeline.Project, error)
	LoadMostRecentProject(ctx context.Context) (*timeline.Project, error)
	ListProjects(ctx context.Context) ([]*ProjectSummary, error)
	DeleteProject(ctx context.Context, id string) error

	CreateAsset(ctx context.Context, a *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	GetAssetByPath(ctx context.Context, relativePath string) (*Asset, error)
	GetAssetByFingerprint(ctx context.Context, fingerprint string) (*Asset, error)
	ListAssets(ctx context.Context) ([]*Asset, error)
	DeleteAsset(ctx context.Context, id string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveProject inserts or replaces the project document.
func (r *SQLiteRepository) SaveProject(ctx context.Context, p timeline.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project %s: %w", p.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at, updated_at, document)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at,
			document = excluded.document
	`, p.ID.String(), p.Name, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(doc))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*timeline.Project, error) {
	row := r.db.QueryRowContext(ctx, "SELECT document FROM projects WHERE id = ?", id)
	return scanProject(row)
}

// LoadMostRecentProject returns the project modified last, or nil when the
// store holds none.
func (r *SQLiteRepository) LoadMostRecentProject(ctx context.Context) (*timeline.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT document FROM projects ORDER BY updated_at DESC, rowid DESC LIMIT 1
	`)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*timeline.Project, error) {
	var doc string
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p timeline.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*ProjectSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ProjectSummary
	for rows.Next() {
		var s ProjectSummary
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

const assetColumns = `id, display_name, relative_path, original_path, size, duration_seconds,
	width, height, rotated, has_audio, fingerprint, created_at`

func (r *SQLiteRepository) CreateAsset(ctx context.Context, a *Asset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.DisplayName, a.RelativePath, nullString(a.OriginalPath), a.Size, a.DurationSeconds,
		a.Width, a.Height, boolToInt(a.Rotated), boolToInt(a.HasAudio), a.Fingerprint, formatTime(a.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM media_assets WHERE id = ?", id)
	return scanAsset(row)
}

func (r *SQLiteRepository) GetAssetByPath(ctx context.Context, relativePath string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM media_assets WHERE relative_path = ?", relativePath)
	return scanAsset(row)
}

func (r *SQLiteRepository) GetAssetByFingerprint(ctx context.Context, fingerprint string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+assetColumns+` FROM media_assets WHERE fingerprint = ? ORDER BY created_at LIMIT 1
	`, fingerprint)
	return scanAsset(row)
}

// ListAssets returns assets newest first.
func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]*Asset, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+assetColumns+" FROM media_assets ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_assets WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*Asset, error) {
	var a Asset
	var originalPath sql.NullString
	var rotated, hasAudio int
	var createdAt string

	err := row.Scan(&a.ID, &a.DisplayName, &a.RelativePath, &originalPath, &a.Size, &a.DurationSeconds,
		&a.Width, &a.Height, &rotated, &hasAudio, &a.Fingerprint, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.OriginalPath = originalPath.String
	a.Rotated = rotated == 1
	a.HasAudio = hasAudio == 1
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
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

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
