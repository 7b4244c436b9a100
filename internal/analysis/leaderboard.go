// Package analysis builds leaderboards and lap by lap comparisons from ingested timing tables.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"justapengu.in/laptimes/internal/timing"
)

type LeaderboardLine struct {
	Position int
	Lap      timing.Lap
	// GapToLeader is zero for speed leaderboards.
	GapToLeader time.Duration
}

func (l *LeaderboardLine) String() string {
	return fmt.Sprintf("P%d: %s, Lap: %d, Time: %s", l.Position, l.Lap.Driver, l.Lap.LapNumber, l.Lap.LapTime)
}

// FastestLaps returns the best lap of each driver, quickest first. Drivers with no lap time
// are left out. On a tie, a driver's earliest lap in the table is used.
func FastestLaps(t timing.Table) []*LeaderboardLine {
	best := make(map[string]timing.Lap)
	var order []string

	for _, lap := range t {
		lapTime, ok := lap.LapTime.Value()

		if !ok {
			continue
		}

		current, seen := best[lap.Driver]

		if !seen {
			order = append(order, lap.Driver)
			best[lap.Driver] = lap
			continue
		}

		if currentTime, _ := current.LapTime.Value(); lapTime < currentTime {
			best[lap.Driver] = lap
		}
	}

	leaderboard := make([]*LeaderboardLine, 0, len(order))

	for _, driver := range order {
		leaderboard = append(leaderboard, &LeaderboardLine{Lap: best[driver]})
	}

	sort.SliceStable(leaderboard, func(i, j int) bool {
		lapI, _ := leaderboard[i].Lap.LapTime.Value()
		lapJ, _ := leaderboard[j].Lap.LapTime.Value()

		return lapI < lapJ
	})

	for i, line := range leaderboard {
		line.Position = i + 1

		if i > 0 {
			line.GapToLeader, _ = line.Lap.LapTime.Sub(leaderboard[0].Lap.LapTime)
		}
	}

	return leaderboard
}

// TopSpeeds returns the lap with the highest top speed of each driver, fastest first.
func TopSpeeds(t timing.Table) []*LeaderboardLine {
	best := make(map[string]timing.Lap)
	var order []string

	for _, lap := range t {
		speed, ok := lap.TopSpeed.Value()

		if !ok {
			continue
		}

		current, seen := best[lap.Driver]

		if !seen {
			order = append(order, lap.Driver)
			best[lap.Driver] = lap
			continue
		}

		if currentSpeed, _ := current.TopSpeed.Value(); speed > currentSpeed {
			best[lap.Driver] = lap
		}
	}

	leaderboard := make([]*LeaderboardLine, 0, len(order))

	for _, driver := range order {
		leaderboard = append(leaderboard, &LeaderboardLine{Lap: best[driver]})
	}

	sort.SliceStable(leaderboard, func(i, j int) bool {
		speedI, _ := leaderboard[i].Lap.TopSpeed.Value()
		speedJ, _ := leaderboard[j].Lap.TopSpeed.Value()

		return speedI > speedJ
	})

	for i, line := range leaderboard {
		line.Position = i + 1
	}

	return leaderboard
}

// BestLapTimes returns each driver's minimum lap time.
func BestLapTimes(t timing.Table) map[string]timing.Duration {
	best := make(map[string]timing.Duration)

	for _, line := range FastestLaps(t) {
		best[line.Lap.Driver] = line.Lap.LapTime
	}

	return best
}
