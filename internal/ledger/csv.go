package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"solar-logger/internal/model"
)

const (
	dateColumn  = "Date"
	inputSuffix = "_Input"
	totalColumn = "TotalWhGenerated"
)

// ErrNoDataRows aborts an import whose file has a header but no rows.
var ErrNoDataRows = errors.New("CSV file is empty or has no data rows")

// ImportError aborts an import whose header lacks a required column.
type ImportError struct {
	Column string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("CSV missing '%s' column", e.Column)
}

// RowWarning describes a data row that was skipped.
type RowWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult holds the computed records and the rows that were skipped.
type ImportResult struct {
	Records []model.DailyPowerRecord
	Skipped []RowWarning
}

// InputColumn is the CSV header for a station's raw input.
func InputColumn(id model.StationID) string {
	return string(id) + inputSuffix
}

// WriteCSV writes records oldest first with one input column per station
// and the total formatted to two decimals.
func WriteCSV(out io.Writer, records []model.DailyPowerRecord, stations []model.StationConfig) error {
	w := csv.NewWriter(out)

	header := make([]string, 0, len(stations)+2)
	header = append(header, dateColumn)
	for _, st := range stations {
		header = append(header, InputColumn(st.ID))
	}
	header = append(header, totalColumn)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range SortAscending(records) {
		row := make([]string, 0, len(header))
		row = append(row, r.Date)
		for _, st := range stations {
			row = append(row, r.Input(st.ID))
		}
		row = append(row, fmtTotal(r.TotalWhGenerated))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

var templateInputs = []string{"50", "60-12", "75", "40+10"}

// WriteTemplate writes an import template: the header and one example row.
func WriteTemplate(out io.Writer, stations []model.StationConfig) error {
	w := csv.NewWriter(out)

	header := []string{dateColumn}
	example := []string{"2024-07-21"}
	for i, st := range stations {
		header = append(header, InputColumn(st.ID))
		example = append(example, templateInputs[i%len(templateInputs)])
	}
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.Write(example); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// ReadCSV parses an import file and computes one record per valid row.
//
// Header names match case-insensitively. A missing Date or station input
// column aborts with *ImportError, and a file without data rows aborts
// with ErrNoDataRows. Rows with a bad date or too few columns are skipped
// and reported in ImportResult.Skipped.
func ReadCSV(in io.Reader, stations []model.StationConfig) (*ImportResult, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoDataRows
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	dateIdx := findColumn(header, dateColumn)
	if dateIdx < 0 {
		return nil, &ImportError{Column: dateColumn}
	}
	need := dateIdx
	inputIdx := make(map[model.StationID]int, len(stations))
	for _, st := range stations {
		idx := findColumn(header, InputColumn(st.ID))
		if idx < 0 {
			return nil, &ImportError{Column: InputColumn(st.ID)}
		}
		inputIdx[st.ID] = idx
		if idx > need {
			need = idx
		}
	}

	res := &ImportResult{Records: []model.DailyPowerRecord{}}
	rows := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rows++
			res.Skipped = append(res.Skipped, RowWarning{Line: perr.StartLine, Reason: perr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows++
		line, _ := r.FieldPos(0)

		if len(fields) <= need {
			res.Skipped = append(res.Skipped, RowWarning{
				Line:   line,
				Reason: fmt.Sprintf("missing columns: got %d, need %d", len(fields), need+1),
			})
			continue
		}
		date := strings.TrimSpace(fields[dateIdx])
		if !model.ValidDate(date) {
			res.Skipped = append(res.Skipped, RowWarning{
				Line:   line,
				Reason: fmt.Sprintf("invalid date format: %q", date),
			})
			continue
		}

		inputs := make(map[model.StationID]string, len(stations))
		for id, idx := range inputIdx {
			inputs[id] = strings.TrimSpace(fields[idx])
		}
		res.Records = append(res.Records, ComputeRecord(date, inputs, stations))
	}

	if rows == 0 {
		return nil, ErrNoDataRows
	}
	return res, nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func fmtTotal(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
