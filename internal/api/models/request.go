package models

// EntryRequest is the body of POST /api/entries and POST /api/compute.
// Inputs are keyed by station id; missing stations count as empty input.
type EntryRequest struct {
	Date   string            `json:"date" binding:"required"` // YYYY-MM-DD
	Inputs map[string]string `json:"inputs"`
}
