package store

import (
	"context"
	"sync"

	"solar-logger/internal/model"
)

// Memory keeps the collection in process. Useful for tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	records []model.DailyPowerRecord
	saves   int
	// FailWith, when set, is returned by Save.
	FailWith error
}

func NewMemory(records ...model.DailyPowerRecord) *Memory {
	return &Memory{records: copyRecords(records)}
}

func (m *Memory) Load(ctx context.Context) ([]model.DailyPowerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecords(m.records), nil
}

func (m *Memory) Save(ctx context.Context, records []model.DailyPowerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.records = copyRecords(records)
	m.saves++
	return nil
}

// Saves reports how many successful Save calls have happened.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }

func copyRecords(in []model.DailyPowerRecord) []model.DailyPowerRecord {
	out := make([]model.DailyPowerRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
