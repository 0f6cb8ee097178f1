package ledger

import (
	"bytes"
	"testing"

	"solar-logger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	stations := model.DefaultStations()
	records := []model.DailyPowerRecord{
		ComputeRecord("2024-07-22", map[model.StationID]string{model.River2: "10"}, stations),
		ComputeRecord("2024-07-21", map[model.StationID]string{model.River2: "50", model.EB3A: "40+10"}, stations),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records, stations))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Date", "River2_Input", "River3_Input", "Delta3_Input", "EB3A_Input", "TotalWhGenerated",
		"River2_Wh", "River3_Wh", "Delta3_Wh", "EB3A_Wh",
	}, rows[0])
	assert.Equal(t, "2024-07-21", rows[1][0])
	assert.Equal(t, "40+10", rows[1][4])
	assert.Equal(t, "262", rows[1][5])
	assert.Equal(t, "2024-07-22", rows[2][0])
}
