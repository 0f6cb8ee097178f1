package handlers

import (
	"net/http"
	"time"

	"solar-logger/internal/analysis"
	"solar-logger/internal/api/models"
	"solar-logger/internal/ledger"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves charts and summary numbers
type StatsHandler struct {
	book *ledger.Book
	now  func() time.Time
}

// NewStatsHandler creates a new stats handler. nil now means time.Now.
func NewStatsHandler(book *ledger.Book, now func() time.Time) *StatsHandler {
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{book: book, now: now}
}

// ListStations handles GET /api/stations
func (h *StatsHandler) ListStations(c *gin.Context) {
	c.JSON(http.StatusOK, models.StationsResponse{Stations: h.book.Stations()})
}

// Series handles GET /api/series?range=30d|90d|1y|all
func (h *StatsHandler) Series(c *gin.Context) {
	r, err := analysis.ParseRange(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_RANGE", err.Error()))
		return
	}
	c.JSON(http.StatusOK, analysis.BuildSeries(h.book.Records(), r, h.now()))
}

// Stats handles GET /api/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	records := h.book.Records()
	c.JSON(http.StatusOK, models.StatsResponse{
		Quick:   analysis.Quick(records, h.now()),
		Summary: analysis.Summarize(records, h.book.Stations()),
	})
}
