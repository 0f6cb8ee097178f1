package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"solar-logger/internal/api/models"
	"solar-logger/internal/ledger"
	"solar-logger/internal/model"
	"solar-logger/internal/recovery"

	"github.com/gin-gonic/gin"
)

// EntryHandler handles daily input submission
type EntryHandler struct {
	book   *ledger.Book
	logger *slog.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(book *ledger.Book, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{book: book, logger: logger}
}

// SubmitEntry handles POST /api/entries
// Every input must parse before anything is stored.
func (h *EntryHandler) SubmitEntry(c *gin.Context) {
	date, inputs, ok := h.bindEntry(c)
	if !ok {
		return
	}
	if err := recovery.Validate(inputs, h.book.Stations()); err != nil {
		var ie *recovery.InputError
		if errors.As(err, &ie) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_INPUT",
					Message: fmt.Sprintf("Invalid input for %s. Use numbers or simple expressions like '60-12'.", ie.Station.Name),
					Details: map[string]interface{}{
						"station": ie.Station.ID,
						"input":   ie.Input,
					},
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_INPUT", err.Error()))
		return
	}

	res, err := h.book.Submit(c.Request.Context(), date, inputs)
	if err != nil {
		if errors.Is(err, ledger.ErrPersist) {
			c.JSON(http.StatusInternalServerError, models.NewError("PERSIST_FAILED", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_DATE", err.Error()))
		return
	}

	status, code := "added", http.StatusCreated
	if res.Updated {
		status, code = "updated", http.StatusOK
	}
	h.logger.InfoContext(c.Request.Context(), "entry saved",
		"date", date, "status", status, "total_wh", res.Record.TotalWhGenerated)
	c.JSON(code, models.EntryResponse{
		Status:   status,
		Record:   res.Record,
		Degraded: res.Record.DegradedStations(),
	})
}

// Compute handles POST /api/compute
// It returns the record the inputs would produce without storing it.
// Invalid inputs are reported as degraded rather than rejected.
func (h *EntryHandler) Compute(c *gin.Context) {
	date, inputs, ok := h.bindEntry(c)
	if !ok {
		return
	}
	rec := ledger.ComputeRecord(date, inputs, h.book.Stations())
	c.JSON(http.StatusOK, models.EntryResponse{
		Status:   "computed",
		Record:   rec,
		Degraded: rec.DegradedStations(),
	})
}

// bindEntry decodes the body and resolves station keys. On failure the
// response has already been written.
func (h *EntryHandler) bindEntry(c *gin.Context) (string, map[model.StationID]string, bool) {
	var req models.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_REQUEST", err.Error()))
		return "", nil, false
	}
	if !model.ValidDate(req.Date) {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_DATE", ledger.ErrInvalidDate.Error()))
		return "", nil, false
	}
	inputs := make(map[model.StationID]string, len(req.Inputs))
	for k, v := range req.Inputs {
		id, err := model.ParseStationID(k)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.NewError("UNKNOWN_STATION", err.Error()))
			return "", nil, false
		}
		inputs[id] = v
	}
	return req.Date, inputs, true
}
