// Package api wires the HTTP surface onto a ledger.Book.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"solar-logger/internal/api/handlers"
	"solar-logger/internal/api/middleware"
	"solar-logger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Now is the clock used for export names and time ranges.
	Now func() time.Time
}

func NewRouter(book *ledger.Book, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	recordHandler := handlers.NewRecordHandler(book, logger)
	entryHandler := handlers.NewEntryHandler(book, logger)
	transferHandler := handlers.NewTransferHandler(book, logger, opts.Now)
	statsHandler := handlers.NewStatsHandler(book, opts.Now)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/stations", statsHandler.ListStations)

		api.GET("/records", recordHandler.ListRecords)
		api.POST("/records", recordHandler.SaveRecords)
		api.GET("/records/:date", recordHandler.GetRecord)
		api.DELETE("/records/:date", recordHandler.DeleteRecord)

		api.POST("/entries", entryHandler.SubmitEntry)
		api.POST("/compute", entryHandler.Compute)

		api.GET("/csv/export", transferHandler.ExportCSV)
		api.GET("/csv/template", transferHandler.Template)
		api.POST("/csv/import", transferHandler.ImportCSV)
		api.GET("/xlsx/export", transferHandler.ExportXLSX)

		api.GET("/series", statsHandler.Series)
		api.GET("/stats", statsHandler.Stats)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return router
}
