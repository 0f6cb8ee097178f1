package recovery

import (
	"fmt"

	"solar-logger/internal/model"
)

// InputError names the station whose input failed to parse.
type InputError struct {
	Station model.StationConfig
	Input   string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %q", e.Station.Name, e.Input)
}

func (e *InputError) Unwrap() error { return e.Err }

// Validate checks every configured station's input and returns an
// *InputError for the first one Parse rejects. Blank inputs are allowed.
func Validate(inputs map[model.StationID]string, stations []model.StationConfig) error {
	for _, st := range stations {
		in := inputs[st.ID]
		if _, err := Parse(in); err != nil {
			return &InputError{Station: st, Input: in, Err: err}
		}
	}
	return nil
}
