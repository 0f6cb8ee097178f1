package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"solar-logger/internal/metrics"
	"solar-logger/internal/model"
	"solar-logger/internal/store"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	// ErrPersist is returned when a mutation was applied in memory but the
	// store rejected it. The in-memory collection stays authoritative.
	ErrPersist = errors.New("failed to persist records")
)

// Book owns the in-memory record collection and its store. Every mutation
// reconciles and persists under one lock, so concurrent callers never
// interleave.
type Book struct {
	mu      sync.Mutex
	engine  *Engine
	store   store.Provider
	logger  *slog.Logger
	records []model.DailyPowerRecord // newest first
}

func NewBook(engine *Engine, provider store.Provider, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		engine:  engine,
		store:   provider,
		logger:  logger,
		records: []model.DailyPowerRecord{},
	}
}

// SubmitResult describes the outcome of Submit.
type SubmitResult struct {
	Record  model.DailyPowerRecord
	Updated bool
}

func (b *Book) Stations() []model.StationConfig {
	return b.engine.Stations()
}

// Load replaces the in-memory collection with the store's contents. On
// failure the current collection is kept.
func (b *Book) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	loaded, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	b.records = Reconcile(nil, loaded)
	metrics.SetRecordCount(len(b.records))
	b.logger.InfoContext(ctx, "records loaded", "count", len(b.records))
	return nil
}

// Records returns a copy of the collection, newest first.
func (b *Book) Records() []model.DailyPowerRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.records)
}

// Search returns the records matching term, newest first.
func (b *Book) Search(term string) []model.DailyPowerRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.DailyPowerRecord{}
	for _, r := range b.records {
		if r.Matches(term) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (b *Book) Get(date string) (model.DailyPowerRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if r.Date == date {
			return r.Clone(), true
		}
	}
	return model.DailyPowerRecord{}, false
}

// Submit computes the record for date from inputs and upserts it.
func (b *Book) Submit(ctx context.Context, date string, inputs map[model.StationID]string) (SubmitResult, error) {
	if !model.ValidDate(date) {
		return SubmitResult{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	rec := b.engine.Compute(date, inputs)
	for _, id := range rec.DegradedStations() {
		metrics.IncDegradedInput(string(id))
		b.logger.WarnContext(ctx, "invalid station input recorded as zero",
			"date", date, "station", id, "input", rec.Input(id))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	updated := indexOf(b.records, date) >= 0
	err := b.apply(ctx, "submit", Reconcile(b.records, []model.DailyPowerRecord{rec}))
	return SubmitResult{Record: rec.Clone(), Updated: updated}, err
}

// Import merges records into the collection, overwriting matching dates.
func (b *Book) Import(ctx context.Context, records []model.DailyPowerRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(ctx, "import", Reconcile(b.records, cloneAll(records)))
}

// Replace overwrites the whole collection.
func (b *Book) Replace(ctx context.Context, records []model.DailyPowerRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(ctx, "replace", Reconcile(nil, cloneAll(records)))
}

// Delete removes the record for date, or returns ErrNotFound.
func (b *Book) Delete(ctx context.Context, date string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, found := Remove(b.records, date)
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	return b.apply(ctx, "delete", next)
}

// apply must be called with mu held.
func (b *Book) apply(ctx context.Context, op string, next []model.DailyPowerRecord) error {
	b.records = next
	metrics.SetRecordCount(len(next))

	err := b.store.Save(ctx, next)
	metrics.ObserveMutation(op, err)
	if err != nil {
		b.logger.ErrorContext(ctx, "persist failed, keeping in-memory records", "op", op, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func indexOf(records []model.DailyPowerRecord, date string) int {
	for i, r := range records {
		if r.Date == date {
			return i
		}
	}
	return -1
}

func cloneAll(in []model.DailyPowerRecord) []model.DailyPowerRecord {
	out := make([]model.DailyPowerRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
