package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solar-logger/internal/api/models"
	"solar-logger/internal/ledger"
	"solar-logger/internal/logging"
	"solar-logger/internal/model"
	"solar-logger/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	book   *ledger.Book
	mem    *store.Memory
}

func newTestServer(t *testing.T, seed ...model.DailyPowerRecord) *testServer {
	t.Helper()
	mem := store.NewMemory(seed...)
	book := ledger.NewBook(ledger.New(model.DefaultStations()), mem, logging.Discard())
	require.NoError(t, book.Load(context.Background()))
	router := NewRouter(book, Options{
		Logger:         logging.Discard(),
		AllowedOrigins: []string{"http://localhost:5173"},
		Gatherer:       prometheus.NewRegistry(),
		Now:            func() time.Time { return fixedNow },
	})
	return &testServer{router: router, book: book, mem: mem}
}

func (s *testServer) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, path, "application/json", []byte(body))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStations(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/stations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.DefaultStations(), resp.Stations)
}

func TestRecordsBlobRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/records", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	body := `[
		{"date":"2024-07-20","stationData":{"River2":{"input":"50","recoveredPercentage":50,"recoveredWh":128}},"totalWhGenerated":128},
		{"date":"2024-07-21","stationData":{},"totalWhGenerated":0}
	]`
	w = s.postJSON("/api/records", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Records saved successfully"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/records", "", nil)
	var got []model.DailyPowerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "2024-07-21", got[0].Date)
	assert.Equal(t, "50", got[1].Input(model.River2))
	assert.Equal(t, 1, s.mem.Saves())
}

func TestRecordsBlobValidation(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `nope`, "Invalid data format. Expected an array of records."},
		{"object", `{"date":"2024-07-21"}`, "Invalid data format. Expected an array of records."},
		{"null", `null`, "Invalid data format. Expected an array of records."},
		{"missing total", `[{"date":"2024-07-21"}]`, "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."},
		{"numeric date", `[{"date":20240721,"totalWhGenerated":1}]`, "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."},
		{"string total", `[{"date":"2024-07-21","totalWhGenerated":"1"}]`, "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."},
		{"null date", `[{"date":null,"totalWhGenerated":1}]`, "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."},
		{"array item", `[[1,2]]`, "Invalid record structure. Each record must have a date (string) and totalWhGenerated (number)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.postJSON("/api/records", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp models.MessageResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Message)
		})
	}
	assert.Zero(t, s.mem.Saves())
}

func TestRecordsBlobPersistFailure(t *testing.T) {
	s := newTestServer(t)
	s.mem.FailWith = errors.New("disk full")

	w := s.postJSON("/api/records", `[{"date":"2024-07-21","totalWhGenerated":1}]`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Error writing data file"}`, w.Body.String())
}

func TestSubmitEntry(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/api/entries", `{"date":"2024-07-21","inputs":{"River2":"50","river3":"60-12","Delta3":"75","EB3A":"40+10"}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.EntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "added", resp.Status)
	assert.InDelta(t, 128+110.4+768+134, resp.Record.TotalWhGenerated, 1e-9)
	assert.Empty(t, resp.Degraded)

	w = s.postJSON("/api/entries", `{"date":"2024-07-21","inputs":{"River2":"10"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp.Status)
	assert.InDelta(t, 25.6, resp.Record.TotalWhGenerated, 1e-9)
	assert.Len(t, s.book.Records(), 1)
}

func TestSubmitEntryRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/api/entries", `{"date":"2024-07-21","inputs":{"River2":"50","Delta3":"abc"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "INVALID_INPUT", detail.Code)
	assert.Equal(t, "Invalid input for Delta3. Use numbers or simple expressions like '60-12'.", detail.Message)
	assert.Equal(t, "Delta3", detail.Details["station"])
	assert.Empty(t, s.book.Records())
}

func TestSubmitEntryRequestErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{`, "INVALID_REQUEST"},
		{"missing date", `{"inputs":{}}`, "INVALID_REQUEST"},
		{"bad date", `{"date":"2024-13-01"}`, "INVALID_DATE"},
		{"unknown station", `{"date":"2024-07-21","inputs":{"Powerwall":"5"}}`, "UNKNOWN_STATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.postJSON("/api/entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestComputeDoesNotPersist(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/api/compute", `{"date":"2024-07-21","inputs":{"River2":"120","EB3A":"abc"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.EntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 256.0, resp.Record.TotalWhGenerated)
	assert.Equal(t, []model.StationID{model.EB3A}, resp.Degraded)
	assert.Empty(t, s.book.Records())
	assert.Zero(t, s.mem.Saves())
}

func TestGetAndDeleteRecord(t *testing.T) {
	seed := ledger.ComputeRecord("2024-07-21", map[model.StationID]string{model.River2: "50"}, model.DefaultStations())
	s := newTestServer(t, seed)

	w := s.do(http.MethodGet, "/api/records/2024-07-21", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.DailyPowerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seed, got)

	w = s.do(http.MethodGet, "/api/records/2024-07-22", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/records/2024-07-21", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.book.Records())

	w = s.do(http.MethodDelete, "/api/records/2024-07-21", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestSearch(t *testing.T) {
	stations := model.DefaultStations()
	s := newTestServer(t,
		ledger.ComputeRecord("2024-07-21", map[model.StationID]string{model.River2: "60-12"}, stations),
		ledger.ComputeRecord("2024-08-01", map[model.StationID]string{model.River2: "50"}, stations),
	)

	w := s.do(http.MethodGet, "/api/records?q=07-21", "", nil)
	var got []model.DailyPowerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-07-21", got[0].Date)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, ledger.ComputeRecord("2024-07-21", map[model.StationID]string{model.River2: "50"}, model.DefaultStations()))

	w := s.do(http.MethodGet, "/api/csv/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="solar_power_records_2024-07-31.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t,
		"Date,River2_Input,River3_Input,Delta3_Input,EB3A_Input,TotalWhGenerated\n2024-07-21,50,,,,128.00\n",
		w.Body.String())
}

func TestTemplate(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/csv/template", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2024-07-21,50,60-12,75,40+10")
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t, ledger.ComputeRecord("2024-07-21", nil, model.DefaultStations()))
	w := s.do(http.MethodGet, "/api/xlsx/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

const importCSV = "Date,River2_Input,River3_Input,Delta3_Input,EB3A_Input\n" +
	"2024-07-21,50,60-12,75,40+10\n" +
	"07/22/2024,50,50,50,50\n" +
	"2024-07-23,abc,,,\n"

func TestImportCSVRawBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/csv/import", "text/csv", []byte(importCSV))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, 3, resp.Warnings[0].Line)

	records := s.book.Records()
	require.Len(t, records, 2)
	assert.Equal(t, []model.StationID{model.River2}, records[0].DegradedStations())
}

func TestImportCSVMultipart(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "records.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := s.do(http.MethodPost, "/api/csv/import", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.book.Records(), 2)
}

func TestImportCSVFailures(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing column", "Date,River2_Input\n2024-07-21,1\n", "MISSING_COLUMN"},
		{"header only", "Date,River2_Input,River3_Input,Delta3_Input,EB3A_Input\n", "NO_DATA_ROWS"},
		{"empty", "", "NO_DATA_ROWS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/csv/import", "text/csv", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
	assert.Zero(t, s.mem.Saves())
}

func TestImportCSVMissingColumnMessage(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/csv/import", "text/csv", []byte("Date,River2_Input,River3_Input,Delta3_Input\n2024-07-21,1,2,3\n"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSV missing 'EB3A_Input' column", decodeError(t, w).Message)
}

func TestSeries(t *testing.T) {
	stations := model.DefaultStations()
	s := newTestServer(t,
		ledger.ComputeRecord("2024-07-30", map[model.StationID]string{model.River2: "50"}, stations),
		ledger.ComputeRecord("2024-07-31", map[model.StationID]string{model.River2: "100"}, stations),
		ledger.ComputeRecord("2024-01-01", map[model.StationID]string{model.River2: "100"}, stations),
	)

	w := s.do(http.MethodGet, "/api/series", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"range":"30d",
		"daily":[{"date":"2024-07-30","value":128},{"date":"2024-07-31","value":256}],
		"cumulative":[{"date":"2024-07-30","value":128},{"date":"2024-07-31","value":384}]
	}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/series?range=all", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2024-01-01")

	w = s.do(http.MethodGet, "/api/series?range=2w", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RANGE", decodeError(t, w).Code)
}

func TestStats(t *testing.T) {
	stations := model.DefaultStations()
	s := newTestServer(t,
		ledger.ComputeRecord("2024-07-31", map[model.StationID]string{model.River2: "100"}, stations),
		ledger.ComputeRecord("2024-07-10", map[model.StationID]string{model.River2: "50"}, stations),
	)

	w := s.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 256.0, resp.Quick.Last7DaysWh)
	assert.Equal(t, 384.0, resp.Quick.Last30DaysWh)
	assert.Equal(t, 2, resp.Summary.Days)
	assert.Equal(t, "2024-07-31", resp.Summary.BestDay)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
