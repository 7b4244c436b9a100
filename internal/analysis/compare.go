package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"justapengu.in/laptimes/internal/timing"
)

var (
	ErrNotEnoughDrivers = errors.New("analysis: a comparison needs at least two drivers")
	ErrUnknownReference = errors.New("analysis: reference driver is not part of the comparison")
)

type ComparisonCell struct {
	Driver  string
	LapTime timing.Duration
	// Fastest is set when LapTime equals the driver's best lap time in the table.
	Fastest bool
	// Delta is the gap to the next driver (sequential comparisons) or from the reference
	// driver. HasDelta is false when either time is missing.
	Delta    time.Duration
	HasDelta bool
}

type ComparisonRow struct {
	LapNumber int
	Cells     []ComparisonCell
}

type Comparison struct {
	Drivers []string
	// Reference is empty for sequential comparisons.
	Reference string
	Rows      []ComparisonRow
}

// Compare lines up the laps of drivers by lap number. With an empty reference each cell
// carries the delta to the next driver in the list, otherwise the delta from reference.
func Compare(t timing.Table, drivers []string, reference string) (*Comparison, error) {
	if len(drivers) < 2 {
		return nil, ErrNotEnoughDrivers
	}

	if reference != "" && !contains(drivers, reference) {
		return nil, ErrUnknownReference
	}

	best := BestLapTimes(t)
	lapTimes := make(map[string]map[int]timing.Duration, len(drivers))
	lapNumbers := make(map[int]bool)

	for _, driver := range drivers {
		lapTimes[driver] = make(map[int]timing.Duration)
	}

	for _, lap := range t {
		laps, ok := lapTimes[lap.Driver]

		if !ok || lap.LapNumber == 0 {
			continue
		}

		if _, seen := laps[lap.LapNumber]; seen {
			continue
		}

		laps[lap.LapNumber] = lap.LapTime
		lapNumbers[lap.LapNumber] = true
	}

	comparison := &Comparison{
		Drivers:   drivers,
		Reference: reference,
	}

	for lapNumber := range lapNumbers {
		row := ComparisonRow{LapNumber: lapNumber}

		for _, driver := range drivers {
			lapTime := lapTimes[driver][lapNumber]

			row.Cells = append(row.Cells, ComparisonCell{
				Driver:  driver,
				LapTime: lapTime,
				Fastest: !lapTime.IsMissing() && lapTime == best[driver],
			})
		}

		for i := range row.Cells {
			cell := &row.Cells[i]

			switch {
			case reference == "":
				if i < len(row.Cells)-1 {
					cell.Delta, cell.HasDelta = row.Cells[i+1].LapTime.Sub(cell.LapTime)
				}
			case cell.Driver != reference:
				cell.Delta, cell.HasDelta = cell.LapTime.Sub(lapTimes[reference][lapNumber])
			}
		}

		comparison.Rows = append(comparison.Rows, row)
	}

	sort.Slice(comparison.Rows, func(i, j int) bool {
		return comparison.Rows[i].LapNumber < comparison.Rows[j].LapNumber
	})

	return comparison, nil
}

// FormatDelta renders a gap in seconds with an explicit sign, e.g. "+0.123" or "-1.500".
func FormatDelta(d time.Duration) string {
	switch {
	case d == 0:
		return "0.000"
	case d > 0:
		return fmt.Sprintf("+%.3f", d.Seconds())
	default:
		return fmt.Sprintf("%.3f", d.Seconds())
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
