package ledger

import (
	"sort"

	"solar-logger/internal/model"
)

// Reconcile upserts incoming into existing by date. An incoming record
// replaces any record with the same date (the last one wins when incoming
// repeats a date); everything else is kept. The result is sorted by date,
// newest first.
func Reconcile(existing, incoming []model.DailyPowerRecord) []model.DailyPowerRecord {
	byDate := make(map[string]model.DailyPowerRecord, len(existing)+len(incoming))
	for _, r := range existing {
		byDate[r.Date] = r
	}
	for _, r := range incoming {
		byDate[r.Date] = r
	}

	out := make([]model.DailyPowerRecord, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// Remove drops the record for date. It reports whether one was present.
func Remove(existing []model.DailyPowerRecord, date string) ([]model.DailyPowerRecord, bool) {
	out := make([]model.DailyPowerRecord, 0, len(existing))
	found := false
	for _, r := range existing {
		if r.Date == date {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

// SortDescending returns a copy ordered newest first, for display.
func SortDescending(records []model.DailyPowerRecord) []model.DailyPowerRecord {
	out := append([]model.DailyPowerRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// SortAscending returns a copy ordered oldest first, for cumulative math
// and export.
func SortAscending(records []model.DailyPowerRecord) []model.DailyPowerRecord {
	out := append([]model.DailyPowerRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
