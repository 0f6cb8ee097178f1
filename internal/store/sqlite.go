package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"solar-logger/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collection (
  id         INTEGER PRIMARY KEY CHECK (id = 1),
  body       TEXT    NOT NULL,
  updated_at TEXT    NOT NULL
);`

const (
	sqliteSelect = `SELECT body FROM collection WHERE id = 1`
	sqliteUpsert = `INSERT INTO collection (id, body, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
)

// SQLite stores the collection blob in a single-row table.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is
// accepted for tests.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]model.DailyPowerRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx, sqliteSelect).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.DailyPowerRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select collection: %w", err)
	}
	records, err := decode([]byte(body))
	if err != nil {
		s.logger.WarnContext(ctx, "stored collection is corrupt, starting empty", "error", err)
		return []model.DailyPowerRecord{}, nil
	}
	return records, nil
}

func (s *SQLite) Save(ctx context.Context, records []model.DailyPowerRecord) error {
	raw, err := encode(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, string(raw), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
