package model

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the key format of a DailyPowerRecord.
const DateLayout = "2006-01-02"

// StationDailyData is the derived per-station result for one day.
// It is only ever built by the record computation engine.
type StationDailyData struct {
	// Input is the raw text the user entered, e.g. "50" or "70-10".
	Input               string  `json:"input"`
	RecoveredPercentage float64 `json:"recoveredPercentage"`
	RecoveredWh         float64 `json:"recoveredWh"`
	// Degraded marks a non-empty input that failed to parse and was
	// recorded as zero.
	Degraded bool `json:"degraded,omitempty"`
}

// DailyPowerRecord is the aggregate across all stations for one date.
// Date is unique within a collection.
type DailyPowerRecord struct {
	Date             string                         `json:"date"`
	StationData      map[StationID]StationDailyData `json:"stationData"`
	TotalWhGenerated float64                        `json:"totalWhGenerated"`
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate renders t in the record key format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DegradedStations returns the stations whose input was invalid, in
// StationIDs order.
func (r DailyPowerRecord) DegradedStations() []StationID {
	var out []StationID
	for _, id := range StationIDs {
		if sd, ok := r.StationData[id]; ok && sd.Degraded {
			out = append(out, id)
		}
	}
	return out
}

// Input returns the raw input recorded for id, or "".
func (r DailyPowerRecord) Input(id StationID) string {
	return r.StationData[id].Input
}

// Inputs returns the raw inputs keyed by station, suitable for recomputing
// the record.
func (r DailyPowerRecord) Inputs() map[StationID]string {
	out := make(map[StationID]string, len(r.StationData))
	for id, sd := range r.StationData {
		out[id] = sd.Input
	}
	return out
}

// Matches reports whether term occurs in the date, in any station input
// (case-insensitive) or in the total. An empty term matches everything.
func (r DailyPowerRecord) Matches(term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(r.Date, term) {
		return true
	}
	lower := strings.ToLower(term)
	for _, sd := range r.StationData {
		if strings.Contains(strings.ToLower(sd.Input), lower) {
			return true
		}
	}
	return strings.Contains(strconv.FormatFloat(r.TotalWhGenerated, 'f', -1, 64), term)
}

// Clone returns a deep copy so callers cannot alias the station map.
func (r DailyPowerRecord) Clone() DailyPowerRecord {
	out := r
	if r.StationData != nil {
		out.StationData = make(map[StationID]StationDailyData, len(r.StationData))
		for k, v := range r.StationData {
			out.StationData[k] = v
		}
	}
	return out
}
