package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/deploytidy/internal/settings"
)

var ErrUnknownKey = errors.New("unknown settings key")

// Repository persists settings overrides as one JSON value per key.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get returns defaults overlaid with every stored value. Unknown keys and
// values of the wrong type are skipped by the merge.
func (r *Repository) Get(ctx context.Context, defaults settings.Snapshot) (settings.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return defaults, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	stored := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return defaults, fmt.Errorf("scan setting: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return defaults, fmt.Errorf("decode setting %q: %w", key, err)
		}
		stored[key] = value
	}
	if err := rows.Err(); err != nil {
		return defaults, fmt.Errorf("rows iteration: %w", err)
	}
	return defaults.Merge(stored), nil
}

func (r *Repository) Set(ctx context.Context, key string, value any) error {
	return r.save(ctx, map[string]any{key: value})
}

// SetAll writes every field of s.
func (r *Repository) SetAll(ctx context.Context, s settings.Snapshot) error {
	return r.save(ctx, s.Record())
}

func (r *Repository) save(ctx context.Context, record map[string]any) error {
	keys := make([]string, 0, len(record))
	for key := range record {
		if !settings.IsKnownKey(key) {
			return fmt.Errorf("save setting %q: %w", key, ErrUnknownKey)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO settings (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, key := range keys {
		encoded, err := json.Marshal(record[key])
		if err != nil {
			return fmt.Errorf("encode setting %q: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(encoded), now); err != nil {
			return fmt.Errorf("save setting %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CheckWritable verifies the database accepts writes without changing any
// stored setting.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS settings_writecheck (id INTEGER)`); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE settings_writecheck`); err != nil {
		return fmt.Errorf("write check cleanup: %w", err)
	}
	return nil
}
