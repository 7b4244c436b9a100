package timing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration is a lap or sector time. The zero value is Missing.
type Duration struct {
	value time.Duration
	valid bool
}

// Missing is the duration of a time token that could not be read.
var Missing = Duration{}

const missingDurationString = "---"

// NewDuration returns a valid Duration truncated to microsecond resolution. Negative
// durations are not lap times and resolve to Missing.
func NewDuration(d time.Duration) Duration {
	if d < 0 {
		return Missing
	}

	return Duration{value: d.Truncate(time.Microsecond), valid: true}
}

func (d Duration) IsMissing() bool {
	return !d.valid
}

// Value returns the underlying duration and whether it is present.
func (d Duration) Value() (time.Duration, bool) {
	return d.value, d.valid
}

func (d Duration) Seconds() float64 {
	return d.value.Seconds()
}

// Sub returns d - other. The result is Missing-aware: ok is false if either side is missing.
func (d Duration) Sub(other Duration) (delta time.Duration, ok bool) {
	if !d.valid || !other.valid {
		return 0, false
	}

	return d.value - other.value, true
}

func (d Duration) String() string {
	return FormatDuration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}

	return json.Marshal(FormatDuration(d))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s *string

	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == nil {
		*d = Missing
		return nil
	}

	*d = ParseDuration(*s)

	return nil
}

var (
	minuteSecondsPattern = regexp.MustCompile(`^(\d+):(\d{2})\.(\d{1,3})$`)
	bareSecondsPattern   = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})$`)
	clockPattern         = regexp.MustCompile(`^(?:(\d+)\s*days?\s*,?\s*)?(\d+):(\d{1,2}):(\d{1,2})(?:\.(\d{1,9}))?$`)
)

// ParseDuration reads a lap/sector time token. Recognised forms, in order: "M:SS.fff",
// "S.fff" and then general clock forms ("H:MM:SS.fff", "1 days 00:01:02.5", "83.4s").
// Anything else, including "---", is Missing.
func ParseDuration(text string) Duration {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))

	if s == "" {
		return Missing
	}

	if m := minuteSecondsPattern.FindStringSubmatch(s); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])

		return NewDuration(time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second + fraction(m[3]))
	}

	if m := bareSecondsPattern.FindStringSubmatch(s); m != nil {
		seconds, _ := strconv.Atoi(m[1])

		return NewDuration(time.Duration(seconds)*time.Second + fraction(m[2]))
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		var days int

		if m[1] != "" {
			days, _ = strconv.Atoi(m[1])
		}

		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		seconds, _ := strconv.Atoi(m[4])

		if minutes > 59 || seconds > 59 {
			return Missing
		}

		return NewDuration(time.Duration(days)*24*time.Hour +
			time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second +
			fraction(m[5]))
	}

	if d, err := time.ParseDuration(s); err == nil {
		return NewDuration(d)
	}

	return Missing
}

// fraction converts the digits after a decimal point into a duration, exactly.
func fraction(digits string) time.Duration {
	if digits == "" {
		return 0
	}

	if len(digits) > 9 {
		digits = digits[:9]
	}

	n, err := strconv.Atoi(digits + strings.Repeat("0", 9-len(digits)))

	if err != nil {
		return 0
	}

	return time.Duration(n)
}

// FormatDuration renders d as "M:SS.mmm", truncating below the millisecond.
func FormatDuration(d Duration) string {
	if !d.valid {
		return missingDurationString
	}

	ms := d.value.Milliseconds()

	return fmt.Sprintf("%01d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
