// Package store persists the whole record collection as one blob.
// Load returns everything, Save overwrites everything.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"solar-logger/internal/model"
)

// Provider is the persistence boundary for the record collection.
type Provider interface {
	// Load returns the stored collection. A missing or corrupt blob
	// yields an empty collection, not an error.
	Load(ctx context.Context) ([]model.DailyPowerRecord, error)
	// Save replaces the stored collection.
	Save(ctx context.Context, records []model.DailyPowerRecord) error
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open builds the provider named by driver.
func Open(ctx context.Context, driver, path string, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverFile:
		return NewFile(path, logger)
	case DriverSQLite:
		return OpenSQLite(ctx, path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", driver)
	}
}

// decode parses a stored blob. Blank input and JSON null decode to an
// empty collection.
func decode(raw []byte) ([]model.DailyPowerRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []model.DailyPowerRecord{}, nil
	}
	var records []model.DailyPowerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.DailyPowerRecord{}
	}
	return records, nil
}

func encode(records []model.DailyPowerRecord) ([]byte, error) {
	if records == nil {
		records = []model.DailyPowerRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}
