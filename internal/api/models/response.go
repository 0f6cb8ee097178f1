package models

import (
	"solar-logger/internal/analysis"
	"solar-logger/internal/ledger"
	"solar-logger/internal/model"
)

// MessageResponse is the plain acknowledgement used by the records blob
// endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

// EntryResponse represents the outcome of POST /api/entries
type EntryResponse struct {
	Status string                 `json:"status"` // "added" or "updated"
	Record model.DailyPowerRecord `json:"record"`
	// Degraded lists stations whose input was stored as zero.
	Degraded []model.StationID `json:"degraded,omitempty"`
}

// ImportResponse summarises a CSV import
type ImportResponse struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Warnings []ledger.RowWarning `json:"warnings"`
}

// StationsResponse lists the active station catalogue
type StationsResponse struct {
	Stations []model.StationConfig `json:"stations"`
}

// StatsResponse bundles the dashboard numbers
type StatsResponse struct {
	Quick   analysis.QuickStats `json:"quick"`
	Summary analysis.Summary    `json:"summary"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewError is shorthand for an ErrorResponse without details.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}
