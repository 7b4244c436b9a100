package analysis

import (
	"testing"
	"time"

	"justapengu.in/laptimes/internal/timing"
)

func lap(driver string, number int, lapTime string, speed string) timing.Lap {
	return timing.Lap{
		Category:  "Interlagos",
		Event:     "Etapa 1",
		Driver:    driver,
		LapNumber: number,
		LapTime:   timing.ParseDuration(lapTime),
		TopSpeed:  timing.ParseSpeed(speed),
	}
}

var testTable = timing.Table{
	lap("ANA", 1, "1:06.000", "150"),
	lap("ANA", 2, "1:05.500", "152,5"),
	lap("ANA", 3, "1:05.500", "149"),
	lap("BIA", 1, "1:05.000", "148"),
	lap("BIA", 2, "1:07.250", ""),
	lap("CAIO", 1, "---", "160"),
	lap("CAIO", 2, "1:09.000", ""),
	lap("DUDA", 1, "", ""),
}

func TestFastestLaps(t *testing.T) {
	leaderboard := FastestLaps(testTable)

	expected := []struct {
		driver string
		lap    int
		gap    time.Duration
	}{
		{driver: "BIA", lap: 1, gap: 0},
		{driver: "ANA", lap: 2, gap: 500 * time.Millisecond},
		{driver: "CAIO", lap: 2, gap: 4 * time.Second},
	}

	if len(leaderboard) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(leaderboard))
	}

	for i, line := range leaderboard {
		if line.Position != i+1 || line.Lap.Driver != expected[i].driver || line.Lap.LapNumber != expected[i].lap || line.GapToLeader != expected[i].gap {
			t.Errorf("line %d: expected %+v, got %s (gap %s)", i, expected[i], line, line.GapToLeader)
		}
	}
}

func TestTopSpeeds(t *testing.T) {
	leaderboard := TopSpeeds(testTable)

	expected := []string{"CAIO", "ANA", "BIA"}

	if len(leaderboard) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(leaderboard))
	}

	for i, line := range leaderboard {
		if line.Lap.Driver != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i+1, expected[i], line.Lap.Driver)
		}
	}

	if leaderboard[1].Lap.LapNumber != 2 {
		t.Errorf("expected ANA's top speed on lap 2, got lap %d", leaderboard[1].Lap.LapNumber)
	}
}

func TestCompareSequential(t *testing.T) {
	comparison, err := Compare(testTable, []string{"ANA", "BIA"}, "")

	if err != nil {
		t.Fatal(err)
	}

	if len(comparison.Rows) != 3 {
		t.Fatalf("expected 3 lap rows, got %d", len(comparison.Rows))
	}

	first := comparison.Rows[0]

	if first.LapNumber != 1 || !first.Cells[0].HasDelta || first.Cells[0].Delta != -time.Second {
		t.Errorf("unexpected first row: %+v", first)
	}

	if first.Cells[1].HasDelta {
		t.Error("the last driver has no next driver to compare against")
	}

	if !first.Cells[1].Fastest || first.Cells[0].Fastest {
		t.Errorf("expected only BIA's lap 1 to be flagged fastest: %+v", first.Cells)
	}

	second, third := comparison.Rows[1], comparison.Rows[2]

	if !second.Cells[0].Fastest || !third.Cells[0].Fastest {
		t.Error("both of ANA's equal best laps should be flagged fastest")
	}

	if third.Cells[0].HasDelta || !third.Cells[1].LapTime.IsMissing() {
		t.Errorf("expected no delta against a missing lap: %+v", third.Cells)
	}
}

func TestCompareReference(t *testing.T) {
	comparison, err := Compare(testTable, []string{"ANA", "BIA", "CAIO"}, "BIA")

	if err != nil {
		t.Fatal(err)
	}

	row := comparison.Rows[1]

	if row.LapNumber != 2 {
		t.Fatalf("expected lap 2, got %d", row.LapNumber)
	}

	if row.Cells[1].HasDelta {
		t.Error("the reference driver has no delta")
	}

	if row.Cells[0].Delta != -1750*time.Millisecond || row.Cells[2].Delta != 1750*time.Millisecond {
		t.Errorf("unexpected deltas: %s, %s", row.Cells[0].Delta, row.Cells[2].Delta)
	}

	if comparison.Rows[0].Cells[2].HasDelta {
		t.Error("CAIO's missing lap 1 should have no delta")
	}
}

func TestCompareErrors(t *testing.T) {
	if _, err := Compare(testTable, []string{"ANA"}, ""); err != ErrNotEnoughDrivers {
		t.Errorf("expected ErrNotEnoughDrivers, got %v", err)
	}

	if _, err := Compare(testTable, []string{"ANA", "BIA"}, "CAIO"); err != ErrUnknownReference {
		t.Errorf("expected ErrUnknownReference, got %v", err)
	}
}

func TestFormatDelta(t *testing.T) {
	deltaTests := map[time.Duration]string{
		0:                        "0.000",
		123 * time.Millisecond:   "+0.123",
		-1500 * time.Millisecond: "-1.500",
	}

	for d, expected := range deltaTests {
		if got := FormatDelta(d); got != expected {
			t.Errorf("FormatDelta(%s): expected %q, got %q", d, expected, got)
		}
	}
}
