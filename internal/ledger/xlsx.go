package ledger

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"solar-logger/internal/model"
)

const xlsxSheet = "records"

// WriteXLSX writes the same table as WriteCSV, followed by one watt-hour
// column per station, as a single-sheet workbook.
func WriteXLSX(out io.Writer, records []model.DailyPowerRecord, stations []model.StationConfig) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	header := []interface{}{dateColumn}
	for _, st := range stations {
		header = append(header, InputColumn(st.ID))
	}
	header = append(header, totalColumn)
	for _, st := range stations {
		header = append(header, string(st.ID)+"_Wh")
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range SortAscending(records) {
		row := []interface{}{r.Date}
		for _, st := range stations {
			row = append(row, r.Input(st.ID))
		}
		row = append(row, round2(r.TotalWhGenerated))
		for _, st := range stations {
			row = append(row, round2(r.StationData[st.ID].RecoveredWh))
		}
		if err := f.SetSheetRow(xlsxSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	return f.Write(out)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
