package timing

import (
	"math"
	"strconv"
	"strings"
)

// rawLap is one retained row with every canonical column still as text.
type rawLap struct {
	category    string
	event       string
	subcategory string
	driver      string
	timestamp   string
	lapNumber   string
	lapTime     string
	sector1     string
	sector2     string
	sector3     string
	topSpeed    string
}

func (raw rawLayoutA) laps(labels Labels) []rawLap {
	var out []rawLap

	for _, row := range raw.rows {
		lap := rawLap{
			category:    raw.columns.cell(row, colCategory),
			event:       raw.columns.cell(row, colEvent),
			subcategory: raw.columns.cell(row, colSubcategory),
			driver:      raw.columns.cell(row, colDriver),
			timestamp:   raw.columns.cell(row, colTimestamp),
			lapNumber:   raw.columns.cell(row, colLapNumber),
			lapTime:     raw.columns.cell(row, colLapTime),
			sector1:     raw.columns.cell(row, colSector1),
			sector2:     raw.columns.cell(row, colSector2),
			sector3:     raw.columns.cell(row, colSector3),
			topSpeed:    raw.columns.cell(row, colTopSpeed),
		}

		if lap.category == "" {
			lap.category = labels.Category
		}

		if lap.event == "" {
			lap.event = labels.Event
		}

		if !lap.retained() {
			continue
		}

		out = append(out, lap)
	}

	return out
}

// laps rebuilds driver attribution: a row whose time of day cell is not a clock time
// names the driver of every following row, until the next such row.
func (raw rawLayoutB) laps(labels Labels) []rawLap {
	var out []rawLap
	var driver string

	for _, row := range raw.rows {
		var timestamp string

		if raw.timeOfDay >= 0 && raw.timeOfDay < len(row) {
			cell := strings.TrimSpace(row[raw.timeOfDay])

			if timeOfDayPattern.MatchString(cell) {
				timestamp = cell
			} else if cell != "" {
				driver = cell
			}
		}

		lap := rawLap{
			category:  labels.Category,
			event:     labels.Event,
			driver:    driver,
			timestamp: timestamp,
			lapNumber: raw.columns.cell(row, colLapNumber),
			lapTime:   raw.columns.cell(row, colLapTime),
			sector1:   raw.columns.cell(row, colSector1),
			sector2:   raw.columns.cell(row, colSector2),
			sector3:   raw.columns.cell(row, colSector3),
			topSpeed:  raw.columns.cell(row, colTopSpeed),
		}

		if !lap.retained() {
			continue
		}

		out = append(out, lap)
	}

	return out
}

// retained reports whether a row carries attributable timing data. A row needs a lap
// number, or a lap time together with a driver; driver markers, trailers and orphaned
// times are dropped.
func (lap rawLap) retained() bool {
	if parseLapNumber(lap.lapNumber) > 0 {
		return true
	}

	return !ParseDuration(lap.lapTime).IsMissing() && CleanDriverName(lap.driver) != ""
}

// parseLapNumber returns the positive integer lap number in s, or 0.
func parseLapNumber(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))

	if s == "" {
		return 0
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n > 0 {
			return n
		}

		return 0
	}

	f, err := strconv.ParseFloat(s, 64)

	if err != nil || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}

	return int(f)
}

// normalizeRaw parses every timing and speed cell into typed laps.
func normalizeRaw(raws []rawLap) Table {
	table := make(Table, 0, len(raws))

	for _, raw := range raws {
		table = append(table, Lap{
			Category:    strings.TrimSpace(raw.category),
			Event:       strings.TrimSpace(raw.event),
			Subcategory: NewSubcategory(strings.TrimSpace(raw.subcategory)),
			Driver:      canonicalDriver(raw.driver),
			Timestamp:   strings.TrimSpace(raw.timestamp),
			LapNumber:   parseLapNumber(raw.lapNumber),
			LapTime:     ParseDuration(raw.lapTime),
			Sector1:     ParseDuration(raw.sector1),
			Sector2:     ParseDuration(raw.sector2),
			Sector3:     ParseDuration(raw.sector3),
			TopSpeed:    ParseSpeed(raw.topSpeed),
		})
	}

	return table
}

// Normalize returns a copy of t with every lap in canonical form. Normalize(Normalize(t))
// equals Normalize(t).
func Normalize(t Table) Table {
	if t == nil {
		return nil
	}

	out := make(Table, len(t))

	for i, lap := range t {
		lap.Category = strings.TrimSpace(lap.Category)
		lap.Event = strings.TrimSpace(lap.Event)
		lap.Driver = canonicalDriver(lap.Driver)
		lap.Timestamp = strings.TrimSpace(lap.Timestamp)

		if lap.LapNumber < 0 {
			lap.LapNumber = 0
		}

		lap.LapTime = renormalize(lap.LapTime)
		lap.Sector1 = renormalize(lap.Sector1)
		lap.Sector2 = renormalize(lap.Sector2)
		lap.Sector3 = renormalize(lap.Sector3)

		if v, ok := lap.TopSpeed.Value(); ok {
			lap.TopSpeed = NewSpeed(v)
		}

		out[i] = lap
	}

	return out
}

func renormalize(d Duration) Duration {
	if v, ok := d.Value(); ok {
		return NewDuration(v)
	}

	return Missing
}

func canonicalDriver(name string) string {
	name = CleanDriverName(name)

	if name == "" {
		return UnknownDriver
	}

	return name
}
