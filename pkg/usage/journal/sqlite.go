package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/ganymede/pkg/config"
)

// schema is the journal table definition. Applied idempotently on open.
const schema = `
CREATE TABLE IF NOT EXISTS usage_journal (
	id            TEXT PRIMARY KEY,
	request_id    TEXT NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	credential_id TEXT NOT NULL DEFAULT '',
	success       INTEGER NOT NULL,
	rate_limited  INTEGER NOT NULL,
	token_count   INTEGER NOT NULL DEFAULT 0,
	error_text    TEXT NOT NULL DEFAULT '',
	attempts      INTEGER NOT NULL DEFAULT 1,
	created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_journal_created_at
	ON usage_journal(created_at);

CREATE INDEX IF NOT EXISTS idx_usage_journal_provider_model
	ON usage_journal(provider, model);
`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the journal database at the
// configured path. WAL mode and a busy timeout are applied for concurrent
// writer friendliness.
func NewSQLiteStore(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "usage.journal.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database %q: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("usage journal storage initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// initialize applies pragmas and the schema.
func (s *SQLiteStore) initialize(cfg config.SQLiteConfig) error {
	if cfg.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if cfg.BusyTimeout > 0 {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Write persists one record.
func (s *SQLiteStore) Write(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_journal
			(id, request_id, provider, model, credential_id, success,
			 rate_limited, token_count, error_text, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.RequestID,
		record.Provider,
		record.Model,
		record.CredentialID,
		record.Success,
		record.RateLimited,
		record.TokenCount,
		record.ErrorText,
		record.Attempts,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write journal record %q: %w", record.ID, err)
	}
	return nil
}

// List returns up to limit records, newest first. Provider and model
// filter independently; an empty value matches all.
func (s *SQLiteStore) List(ctx context.Context, provider, model string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, request_id, provider, model, credential_id, success,
		       rate_limited, token_count, error_text, attempts, created_at
		FROM usage_journal`
	var where []string
	args := []any{}

	if provider != "" {
		where = append(where, "provider = ?")
		args = append(args, provider)
	}
	if model != "" {
		where = append(where, "model = ?")
		args = append(args, model)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.Provider, &r.Model, &r.CredentialID,
			&r.Success, &r.RateLimited, &r.TokenCount, &r.ErrorText,
			&r.Attempts, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_journal").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal records: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records created before the cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_journal WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
