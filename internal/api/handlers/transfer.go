package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"solar-logger/internal/api/models"
	"solar-logger/internal/ledger"
	"solar-logger/internal/metrics"
	"solar-logger/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TransferHandler handles CSV and XLSX import/export
type TransferHandler struct {
	book   *ledger.Book
	logger *slog.Logger
	now    func() time.Time
}

// NewTransferHandler creates a new transfer handler. now stamps export
// file names; nil means time.Now.
func NewTransferHandler(book *ledger.Book, logger *slog.Logger, now func() time.Time) *TransferHandler {
	if now == nil {
		now = time.Now
	}
	return &TransferHandler{book: book, logger: logger, now: now}
}

// ExportCSV handles GET /api/csv/export
func (h *TransferHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, h.book.Records(), h.book.Stations()); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewError("EXPORT_FAILED", err.Error()))
		return
	}
	metrics.IncExport("csv")
	h.attach(c, "solar_power_records_"+model.FormatDate(h.now())+".csv", csvContentType, buf.Bytes())
}

// Template handles GET /api/csv/template
func (h *TransferHandler) Template(c *gin.Context) {
	var buf bytes.Buffer
	if err := ledger.WriteTemplate(&buf, h.book.Stations()); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewError("EXPORT_FAILED", err.Error()))
		return
	}
	h.attach(c, "solar_power_template.csv", csvContentType, buf.Bytes())
}

// ExportXLSX handles GET /api/xlsx/export
func (h *TransferHandler) ExportXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := ledger.WriteXLSX(&buf, h.book.Records(), h.book.Stations()); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewError("EXPORT_FAILED", err.Error()))
		return
	}
	metrics.IncExport("xlsx")
	h.attach(c, "solar_power_records_"+model.FormatDate(h.now())+".xlsx", xlsxContentType, buf.Bytes())
}

// ImportCSV handles POST /api/csv/import
// The file comes from the multipart field "file" or, failing that, the
// raw request body.
func (h *TransferHandler) ImportCSV(c *gin.Context) {
	ctx := c.Request.Context()
	body, err := h.openUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_REQUEST", err.Error()))
		return
	}
	defer body.Close()

	res, err := ledger.ReadCSV(body, h.book.Stations())
	if err != nil {
		var ie *ledger.ImportError
		switch {
		case errors.As(err, &ie):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "MISSING_COLUMN",
					Message: ie.Error(),
					Details: map[string]interface{}{"column": ie.Column},
				},
			})
		case errors.Is(err, ledger.ErrNoDataRows):
			c.JSON(http.StatusBadRequest, models.NewError("NO_DATA_ROWS", err.Error()))
		default:
			c.JSON(http.StatusBadRequest, models.NewError("INVALID_CSV", err.Error()))
		}
		return
	}

	for _, w := range res.Skipped {
		h.logger.WarnContext(ctx, "csv row skipped", "line", w.Line, "reason", w.Reason)
	}
	metrics.AddImportRows(len(res.Records), len(res.Skipped))

	if err := h.book.Import(ctx, res.Records); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewError("PERSIST_FAILED", err.Error()))
		return
	}
	warnings := res.Skipped
	if warnings == nil {
		warnings = []ledger.RowWarning{}
	}
	h.logger.InfoContext(ctx, "csv imported", "imported", len(res.Records), "skipped", len(res.Skipped))
	c.JSON(http.StatusOK, models.ImportResponse{
		Imported: len(res.Records),
		Skipped:  len(res.Skipped),
		Warnings: warnings,
	})
}

func (h *TransferHandler) openUpload(c *gin.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("multipart field %q: %w", "file", err)
		}
		return fh.Open()
	}
	return http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes), nil
}

func (h *TransferHandler) attach(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
