package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"solar-logger/internal/model"
)

// QuickStats are the trailing-window totals shown on the dashboard.
// A window of N days covers today and the N-1 days before it.
type QuickStats struct {
	Last7DaysWh  float64 `json:"last7DaysWh"`
	Last30DaysWh float64 `json:"last30DaysWh"`
}

func Quick(records []model.DailyPowerRecord, now time.Time) QuickStats {
	return QuickStats{
		Last7DaysWh:  TrailingTotal(records, now, 7),
		Last30DaysWh: TrailingTotal(records, now, 30),
	}
}

// TrailingTotal sums TotalWhGenerated over the last days calendar days
// ending at now. Future-dated records are ignored.
func TrailingTotal(records []model.DailyPowerRecord, now time.Time, days int) float64 {
	if days <= 0 {
		return 0
	}
	today := truncateDay(now)
	start := today.AddDate(0, 0, -(days - 1))
	sum := 0.0
	for _, r := range records {
		d, err := model.ParseDate(r.Date)
		if err != nil || d.Before(start) || d.After(today) {
			continue
		}
		sum += r.TotalWhGenerated
	}
	return sum
}

// StationSummary aggregates one station across the records.
type StationSummary struct {
	TotalWh        float64 `json:"totalWh"`
	MeanPercentage float64 `json:"meanPercentage"`
	DegradedDays   int     `json:"degradedDays"`
}

// Summary describes the distribution of daily totals.
type Summary struct {
	Days       int                                `json:"days"`
	TotalWh    float64                            `json:"totalWh"`
	MeanWh     float64                            `json:"meanWh"`
	StdDevWh   float64                            `json:"stdDevWh"`
	MinWh      float64                            `json:"minWh"`
	MaxWh      float64                            `json:"maxWh"`
	BestDay    string                             `json:"bestDay,omitempty"`
	PerStation map[model.StationID]StationSummary `json:"perStation"`
}

// Summarize computes distribution statistics over records for the given
// stations. Standard deviation is the sample deviation, 0 below two days.
func Summarize(records []model.DailyPowerRecord, stations []model.StationConfig) Summary {
	s := Summary{
		Days:       len(records),
		PerStation: make(map[model.StationID]StationSummary, len(stations)),
	}
	for _, st := range stations {
		s.PerStation[st.ID] = StationSummary{}
	}
	if len(records) == 0 {
		return s
	}

	totals := make([]float64, len(records))
	for i, r := range records {
		totals[i] = r.TotalWhGenerated
	}
	s.TotalWh = floats.Sum(totals)
	s.MinWh = floats.Min(totals)
	s.MaxWh = floats.Max(totals)
	s.BestDay = records[floats.MaxIdx(totals)].Date
	if len(totals) > 1 {
		s.MeanWh, s.StdDevWh = stat.MeanStdDev(totals, nil)
	} else {
		s.MeanWh = totals[0]
	}

	pct := make([]float64, len(records))
	for _, st := range stations {
		ss := StationSummary{}
		for i, r := range records {
			sd := r.StationData[st.ID]
			pct[i] = sd.RecoveredPercentage
			ss.TotalWh += sd.RecoveredWh
			if sd.Degraded {
				ss.DegradedDays++
			}
		}
		ss.MeanPercentage = stat.Mean(pct, nil)
		if math.IsNaN(ss.MeanPercentage) {
			ss.MeanPercentage = 0
		}
		s.PerStation[st.ID] = ss
	}
	return s
}
