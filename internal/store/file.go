package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"solar-logger/internal/model"
)

// File keeps the collection in a single indented JSON file
// (records.json).
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile ensures the parent directory exists.
func NewFile(path string, logger *slog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return &File{path: path, logger: logger}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) ([]model.DailyPowerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.DailyPowerRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	records, err := decode(raw)
	if err != nil {
		f.logger.WarnContext(ctx, "records file is corrupt, starting empty", "path", f.path, "error", err)
		return []model.DailyPowerRecord{}, nil
	}
	return records, nil
}

// Save writes to a temp file in the same directory and renames it over
// the target so readers never see a partial file.
func (f *File) Save(ctx context.Context, records []model.DailyPowerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encode(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".records-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write records file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write records file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace records file: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
