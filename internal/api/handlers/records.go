package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"solar-logger/internal/api/models"
	"solar-logger/internal/ledger"
	"solar-logger/internal/model"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 10 << 20

// RecordHandler serves the record collection
type RecordHandler struct {
	book   *ledger.Book
	logger *slog.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(book *ledger.Book, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{book: book, logger: logger}
}

// ListRecords handles GET /api/records
// With ?q= only matching records are returned.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, h.book.Search(q))
		return
	}
	c.JSON(http.StatusOK, h.book.Records())
}

// SaveRecords handles POST /api/records
// The body replaces the whole collection.
func (h *RecordHandler) SaveRecords(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid data format. Expected an array of records."})
		return
	}
	records, msg := decodeRecordArray(raw)
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: msg})
		return
	}

	if err := h.book.Replace(c.Request.Context(), records); err != nil {
		c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Error writing data file"})
		return
	}
	h.logger.InfoContext(c.Request.Context(), "records replaced", "count", len(records))
	c.JSON(http.StatusCreated, models.MessageResponse{Message: "Records saved successfully"})
}

// decodeRecordArray checks that raw is an array of objects, each with a
// string date and a numeric totalWhGenerated, and decodes it. A non-empty
// msg describes the violation.
func decodeRecordArray(raw []byte) (records []model.DailyPowerRecord, msg string) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, "Invalid data format. Expected an array of records."
	}
	const badRecord = "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."
	for _, item := range items {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err != nil || probe == nil {
			return nil, badRecord
		}
		if !isJSONString(probe["date"]) || !isJSONNumber(probe["totalWhGenerated"]) {
			return nil, badRecord
		}
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, badRecord
	}
	return records, ""
}

// GetRecord handles GET /api/records/:date
func (h *RecordHandler) GetRecord(c *gin.Context) {
	date := c.Param("date")
	rec, ok := h.book.Get(date)
	if !ok {
		c.JSON(http.StatusNotFound, models.NewError("NOT_FOUND", "no record for "+date))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/records/:date
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	date := c.Param("date")
	err := h.book.Delete(c.Request.Context(), date)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewError("NOT_FOUND", "no record for "+date))
	case errors.Is(err, ledger.ErrPersist):
		c.JSON(http.StatusInternalServerError, models.NewError("PERSIST_FAILED", err.Error()))
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.NewError("INTERNAL_ERROR", err.Error()))
	default:
		c.Status(http.StatusNoContent)
	}
}

func isJSONString(v json.RawMessage) bool {
	var s string
	return len(v) > 0 && v[0] == '"' && json.Unmarshal(v, &s) == nil
}

func isJSONNumber(v json.RawMessage) bool {
	var f float64
	return len(v) > 0 && v[0] != 'n' && json.Unmarshal(v, &f) == nil
}
