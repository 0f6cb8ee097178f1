package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "solar_logger_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	recordsStored   prometheus.Gauge
	mutationsTotal  *prometheus.CounterVec
	degradedInputs  *prometheus.CounterVec
	importRowsTotal *prometheus.CounterVec
	exportTotal     *prometheus.CounterVec
)

// Init registers the collectors with reg. Passing nil uses the default
// registerer. Only the first call has any effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		recordsStored = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "records",
				Help: "Number of daily records in the collection",
			},
		)
		mutationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mutations_total",
				Help: "Collection mutations by operation and result",
			},
			[]string{"op", "result"},
		)
		degradedInputs = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "degraded_inputs_total",
				Help: "Station inputs that failed to parse and were recorded as zero",
			},
			[]string{"station"},
		)
		importRowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "CSV import rows by outcome",
			},
			[]string{"outcome"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Exports by format",
			},
			[]string{"format"},
		)

		reg.MustRegister(
			httpRequests,
			httpLatency,
			recordsStored,
			mutationsTotal,
			degradedInputs,
			importRowsTotal,
			exportTotal,
		)
	})
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// SetRecordCount sets the collection size gauge.
func SetRecordCount(n int) {
	if recordsStored != nil {
		recordsStored.Set(float64(n))
	}
}

// ObserveMutation counts a collection mutation. A nil err counts as success.
func ObserveMutation(op string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if mutationsTotal != nil {
		mutationsTotal.WithLabelValues(op, result).Inc()
	}
}

func IncDegradedInput(station string) {
	if degradedInputs != nil {
		degradedInputs.WithLabelValues(station).Inc()
	}
}

// AddImportRows counts imported and skipped CSV rows.
func AddImportRows(imported, skipped int) {
	if importRowsTotal == nil {
		return
	}
	if imported > 0 {
		importRowsTotal.WithLabelValues("imported").Add(float64(imported))
	}
	if skipped > 0 {
		importRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
}

func IncExport(format string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format).Inc()
	}
}
