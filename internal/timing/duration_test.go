package timing

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	parseDurationTests := []struct {
		name     string
		input    string
		expected time.Duration
		missing  bool
	}{
		{name: "minutes and seconds", input: "1:23.456", expected: 83*time.Second + 456*time.Millisecond},
		{name: "two digit minutes", input: "12:05.1", expected: 12*time.Minute + 5*time.Second + 100*time.Millisecond},
		{name: "three digit minutes", input: "100:00.000", expected: 100 * time.Minute},
		{name: "comma separator", input: "1:23,456", expected: 83*time.Second + 456*time.Millisecond},
		{name: "bare seconds", input: "59.9", expected: 59*time.Second + 900*time.Millisecond},
		{name: "bare seconds, comma", input: "21,05", expected: 21*time.Second + 50*time.Millisecond},
		{name: "surrounding whitespace", input: "  0:20.000 ", expected: 20 * time.Second},
		{name: "hours", input: "1:02:03.5", expected: time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond},
		{name: "days", input: "1 days 00:00:01", expected: 24*time.Hour + time.Second},
		{name: "unit suffix", input: "83.4s", expected: 83*time.Second + 400*time.Millisecond},
		{name: "empty", input: "", missing: true},
		{name: "placeholder", input: "---", missing: true},
		{name: "text", input: "PIT IN", missing: true},
		{name: "negative", input: "-1s", missing: true},
		{name: "too many second digits", input: "1:2.345", missing: true},
		{name: "minutes out of range", input: "1:75:00.000", missing: true},
	}

	for _, test := range parseDurationTests {
		t.Run(test.name, func(t *testing.T) {
			d := ParseDuration(test.input)

			if test.missing {
				if !d.IsMissing() {
					t.Errorf("expected %q to be missing, got %s", test.input, d)
				}

				return
			}

			v, ok := d.Value()

			if !ok {
				t.Fatalf("expected %q to parse", test.input)
			}

			if v != test.expected {
				t.Errorf("expected %q to parse to %s, got %s", test.input, test.expected, v)
			}
		})
	}
}

func TestFormatDurationRoundTrip(t *testing.T) {
	for _, token := range []string{"1:23.456", "0:59.001", "2:00.000", "0:07.890", "9:59.999", "100:00.000", "125:30.250"} {
		if got := FormatDuration(ParseDuration(token)); got != token {
			t.Errorf("expected %q to round trip, got %q", token, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	formatTests := []struct {
		input    Duration
		expected string
	}{
		{input: Missing, expected: "---"},
		{input: NewDuration(65*time.Second + 234*time.Millisecond), expected: "1:05.234"},
		{input: NewDuration(5*time.Second + 999999*time.Microsecond), expected: "0:05.999"},
		{input: NewDuration(12*time.Minute + 3*time.Second), expected: "12:03.000"},
		{input: ParseDuration("1:23.4"), expected: "1:23.400"},
	}

	for _, test := range formatTests {
		if got := FormatDuration(test.input); got != test.expected {
			t.Errorf("expected %q, got %q", test.expected, got)
		}
	}
}

func TestDurationEquality(t *testing.T) {
	if ParseDuration("1:23,456") != ParseDuration("1:23.456") {
		t.Error("comma and period separators should parse to equal durations")
	}

	if ParseDuration("83.456") != ParseDuration("1:23.456") {
		t.Error("bare seconds and minute form should parse to equal durations")
	}

	if ParseDuration("") != Missing {
		t.Error("empty token should be Missing")
	}
}

func TestDurationSub(t *testing.T) {
	delta, ok := ParseDuration("1:06.500").Sub(ParseDuration("1:05.234"))

	if !ok || delta != 1266*time.Millisecond {
		t.Errorf("expected 1.266s, got %s (ok: %t)", delta, ok)
	}

	if _, ok := ParseDuration("1:06.500").Sub(Missing); ok {
		t.Error("expected subtraction with a missing duration to fail")
	}
}

func TestDurationJSON(t *testing.T) {
	type wrapper struct {
		Lap   Duration
		Other Duration
	}

	b, err := json.Marshal(wrapper{Lap: ParseDuration("1:05.234")})

	if err != nil {
		t.Fatal(err)
	}

	if string(b) != `{"Lap":"1:05.234","Other":null}` {
		t.Errorf("unexpected json: %s", b)
	}

	var decoded wrapper

	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Lap != ParseDuration("1:05.234") || !decoded.Other.IsMissing() {
		t.Errorf("unexpected decoded value: %+v", decoded)
	}
}

func TestParseSpeed(t *testing.T) {
	speedTests := []struct {
		input    string
		expected float64
		missing  bool
	}{
		{input: "180,5", expected: 180.5},
		{input: "180.5", expected: 180.5},
		{input: " 97 ", expected: 97},
		{input: "", missing: true},
		{input: "fast", missing: true},
		{input: "NaN", missing: true},
	}

	for _, test := range speedTests {
		s := ParseSpeed(test.input)
		v, ok := s.Value()

		if test.missing {
			if ok {
				t.Errorf("expected %q to be missing, got %v", test.input, v)
			}

			continue
		}

		if !ok || v != test.expected {
			t.Errorf("expected %q to parse to %v, got %v (ok: %t)", test.input, test.expected, v, ok)
		}
	}
}
