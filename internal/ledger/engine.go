package ledger

import (
	"solar-logger/internal/model"
	"solar-logger/internal/recovery"
)

// Engine computes daily records for a fixed station configuration.
type Engine struct {
	stations []model.StationConfig
}

func New(stations []model.StationConfig) *Engine {
	return &Engine{stations: append([]model.StationConfig(nil), stations...)}
}

// Stations returns the configuration in order.
func (e *Engine) Stations() []model.StationConfig {
	return append([]model.StationConfig(nil), e.stations...)
}

// Compute is ComputeRecord over the engine's stations.
func (e *Engine) Compute(date string, inputs map[model.StationID]string) model.DailyPowerRecord {
	return ComputeRecord(date, inputs, e.stations)
}

// ComputeRecord turns raw per-station inputs into a record with one entry
// per configured station, in configuration order.
//
// It never fails: a non-empty input that does not parse is recorded as a
// zero contribution with Degraded set. Callers that must reject bad input
// run recovery.Validate first. Parsed values are clamped to [0, 100]%.
func ComputeRecord(date string, inputs map[model.StationID]string, stations []model.StationConfig) model.DailyPowerRecord {
	rec := model.DailyPowerRecord{
		Date:        date,
		StationData: make(map[model.StationID]model.StationDailyData, len(stations)),
	}
	total := 0.0

	for _, st := range stations {
		in := inputs[st.ID]
		pct, err := recovery.Parse(in)
		if err != nil {
			rec.StationData[st.ID] = model.StationDailyData{Input: in, Degraded: true}
			continue
		}

		pct = clampPercent(pct)
		wh := pct / 100 * st.CapacityWh

		rec.StationData[st.ID] = model.StationDailyData{
			Input:               in,
			RecoveredPercentage: pct,
			RecoveredWh:         wh,
		}
		total += wh
	}

	rec.TotalWhGenerated = total
	return rec
}

func clampPercent(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}
