package model

import (
	"errors"
	"fmt"
	"strings"
)

// StationID identifies one of the monitored power stations.
// The set is closed: configuration may rename a station or change its
// capacity, but never add new identities.
type StationID string

const (
	River2 StationID = "River2"
	River3 StationID = "River3"
	Delta3 StationID = "Delta3"
	EB3A   StationID = "EB3A"
)

// StationIDs lists every known station in display order.
var StationIDs = []StationID{River2, River3, Delta3, EB3A}

// Known reports whether id is one of StationIDs.
func (id StationID) Known() bool {
	for _, k := range StationIDs {
		if k == id {
			return true
		}
	}
	return false
}

// ParseStationID resolves s to a known station, ignoring case.
func ParseStationID(s string) (StationID, error) {
	s = strings.TrimSpace(s)
	for _, k := range StationIDs {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown station %q", s)
}

// StationConfig is the static description of one station.
// Units:
// - CapacityWh: watt-hours of usable storage
type StationConfig struct {
	ID         StationID `json:"id"`
	Name       string    `json:"name"`
	CapacityWh float64   `json:"capacityWh"`
}

// DefaultStations returns the built-in catalogue in configuration order.
func DefaultStations() []StationConfig {
	return []StationConfig{
		{ID: River2, Name: "River2", CapacityWh: 256},
		{ID: River3, Name: "River3", CapacityWh: 230},
		{ID: Delta3, Name: "Delta3", CapacityWh: 1024},
		{ID: EB3A, Name: "EB3A", CapacityWh: 268},
	}
}

func (s StationConfig) Validate() error {
	if !s.ID.Known() {
		return fmt.Errorf("unknown station id %q", s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("station %s: name is required", s.ID)
	}
	if s.CapacityWh <= 0 {
		return fmt.Errorf("station %s: CapacityWh must be > 0", s.ID)
	}
	return nil
}

// ValidateStations checks every entry and rejects duplicate identities.
func ValidateStations(stations []StationConfig) error {
	if len(stations) == 0 {
		return errors.New("at least one station is required")
	}
	seen := make(map[StationID]bool, len(stations))
	for _, s := range stations {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate station id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// LookupStation finds the configuration for id.
func LookupStation(stations []StationConfig, id StationID) (StationConfig, bool) {
	for _, s := range stations {
		if s.ID == id {
			return s, true
		}
	}
	return StationConfig{}, false
}
