package timing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Speed is a top speed in km/h. The zero value is missing.
type Speed struct {
	value float64
	valid bool
}

var MissingSpeed = Speed{}

func NewSpeed(kmh float64) Speed {
	if math.IsNaN(kmh) || math.IsInf(kmh, 0) {
		return MissingSpeed
	}

	return Speed{value: kmh, valid: true}
}

// ParseSpeed reads a speed token, accepting a comma decimal separator.
func ParseSpeed(text string) Speed {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))

	if s == "" {
		return MissingSpeed
	}

	f, err := strconv.ParseFloat(s, 64)

	if err != nil {
		return MissingSpeed
	}

	return NewSpeed(f)
}

func (s Speed) IsMissing() bool {
	return !s.valid
}

func (s Speed) Value() (float64, bool) {
	return s.value, s.valid
}

// String renders the speed with a '.' separator, or "" when missing.
func (s Speed) String() string {
	if !s.valid {
		return ""
	}

	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

func (s Speed) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}

	return json.Marshal(s.value)
}

func (s *Speed) UnmarshalJSON(b []byte) error {
	var f *float64

	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	if f == nil {
		*s = MissingSpeed
		return nil
	}

	*s = NewSpeed(*f)

	return nil
}
