package recovery

import (
	"errors"
	"testing"

	"solar-logger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"\t\n", 0},
		{"75", 75},
		{" 75 ", 75},
		{"0", 0},
		{"1000", 1000},
		{"12.5", 12.5},
		{".5", 0.5},
		{"5.", 5},
		{"60-12", 48},
		{"40+10", 50},
		{"60 - 12", 48},
		{"60\t+ 5", 65},
		{"12-12", 0},
		{"999+1", 1000},
		{"70.5-0.5", 70},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"1001",
		"-1",
		"-5",
		"+5",
		"60-12-5",
		"40+10+1",
		"12-13",
		"999+2",
		"abc",
		"60x",
		"x60",
		"1.2.3",
		".",
		"60-",
		"-",
		"60 12",
		"60--12",
		"1e2",
		"0x10",
		"abc60-12xyz",
		"(60-12)",
		"60*2",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.False(t, Valid(in))
		})
	}
}

func TestValidate(t *testing.T) {
	stations := model.DefaultStations()

	require.NoError(t, Validate(map[model.StationID]string{
		model.River2: "50",
		model.River3: "60-12",
	}, stations))

	err := Validate(map[model.StationID]string{
		model.River2: "50",
		model.Delta3: "lots",
	}, stations)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, model.Delta3, inErr.Station.ID)
	assert.Equal(t, "lots", inErr.Input)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Delta3")
}
