package prompt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/kailas-cloud/memsearch/internal/domain"
	domprompt "github.com/kailas-cloud/memsearch/internal/domain/prompt"
)

const driverName = "sqlite"

// InMemory opens a private in-memory database.
const InMemory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS system_prompts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	feature    TEXT    NOT NULL,
	prompt     TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_prompts_feature
	ON system_prompts (feature, updated_at DESC, id DESC);
`

// SQLiteRepo stores versioned system prompts in SQLite.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// single writer; also keeps an in-memory database alive on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != InMemory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// Close closes the database.
func (r *SQLiteRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Latest returns the newest prompt for feature or domain.ErrPromptNotFound.
func (r *SQLiteRepo) Latest(ctx context.Context, feature string) (domprompt.Prompt, error) {
	const query = `
		SELECT prompt, updated_at FROM system_prompts
		WHERE feature = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`

	var (
		text      string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, feature).Scan(&text, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domprompt.Prompt{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, feature)
	}
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("query prompt: %w", err)
	}
	return domprompt.Reconstruct(feature, text, time.UnixMilli(updatedAt).UTC()), nil
}

// Save appends a new prompt version.
func (r *SQLiteRepo) Save(ctx context.Context, p domprompt.Prompt) error {
	const query = `INSERT INTO system_prompts (feature, prompt, updated_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, p.Feature(), p.Text(), p.UpdatedAt().UnixMilli()); err != nil {
		return fmt.Errorf("insert prompt: %w", err)
	}
	return nil
}
