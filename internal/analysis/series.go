package analysis

import (
	"fmt"
	"strings"
	"time"

	"solar-logger/internal/ledger"
	"solar-logger/internal/model"
)

// Range selects how far back a chart looks.
type Range string

const (
	Range30Days  Range = "30d"
	Range90Days  Range = "90d"
	Range1Year   Range = "1y"
	RangeAllTime Range = "all"
)

// ParseRange accepts "30d", "90d", "1y" or "all". Empty means 30d.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return Range30Days, nil
	case Range30Days, Range90Days, Range1Year, RangeAllTime:
		return r, nil
	default:
		return "", fmt.Errorf("unsupported range %q (allowed: 30d, 90d, 1y, all)", s)
	}
}

// Start returns the first calendar date included by r, relative to now.
// The zero time means no lower bound.
func (r Range) Start(now time.Time) time.Time {
	today := truncateDay(now)
	switch r {
	case Range90Days:
		return today.AddDate(0, 0, -90)
	case Range1Year:
		return today.AddDate(-1, 0, 0)
	case RangeAllTime:
		return time.Time{}
	default:
		return today.AddDate(0, 0, -30)
	}
}

// Point is one sample of a date-indexed series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Filter returns the records inside r, oldest first. Records with an
// unparseable date are dropped.
func Filter(records []model.DailyPowerRecord, r Range, now time.Time) []model.DailyPowerRecord {
	start := r.Start(now)
	out := make([]model.DailyPowerRecord, 0, len(records))
	for _, rec := range ledger.SortAscending(records) {
		d, err := model.ParseDate(rec.Date)
		if err != nil {
			continue
		}
		if !start.IsZero() && d.Before(start) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DailySeries maps each record to its total. records must be oldest first.
func DailySeries(records []model.DailyPowerRecord) []Point {
	out := make([]Point, len(records))
	for i, r := range records {
		out[i] = Point{Date: r.Date, Value: r.TotalWhGenerated}
	}
	return out
}

// CumulativeSeries is the running sum of DailySeries.
func CumulativeSeries(records []model.DailyPowerRecord) []Point {
	out := make([]Point, len(records))
	cum := 0.0
	for i, r := range records {
		cum += r.TotalWhGenerated
		out[i] = Point{Date: r.Date, Value: cum}
	}
	return out
}

// Series bundles the two chart series for one range.
type Series struct {
	Range      Range   `json:"range"`
	Daily      []Point `json:"daily"`
	Cumulative []Point `json:"cumulative"`
}

func BuildSeries(records []model.DailyPowerRecord, r Range, now time.Time) Series {
	filtered := Filter(records, r, now)
	return Series{
		Range:      r,
		Daily:      DailySeries(filtered),
		Cumulative: CumulativeSeries(filtered),
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
