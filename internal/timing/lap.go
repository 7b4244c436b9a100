package timing

import (
	"encoding/json"
	"sort"
)

const (
	UnknownLocation = "Unknown location"
	UnnamedSession  = "Unnamed session"
	UnknownDriver   = "Unknown driver"
)

// Subcategory is the class a driver races in, resolved from an external mapping.
// The zero value is unresolved.
type Subcategory struct {
	name       string
	registered bool
}

// NotRegistered marks a driver missing from the subcategory mapping.
var NotRegistered = Subcategory{}

const notRegisteredString = "NOT REGISTERED"

func NewSubcategory(name string) Subcategory {
	if name == "" || name == notRegisteredString {
		return NotRegistered
	}

	return Subcategory{name: name, registered: true}
}

func (s Subcategory) IsRegistered() bool {
	return s.registered
}

func (s Subcategory) String() string {
	if !s.registered {
		return notRegisteredString
	}

	return s.name
}

func (s Subcategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Subcategory) UnmarshalJSON(b []byte) error {
	var name string

	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}

	*s = NewSubcategory(name)

	return nil
}

// Lap is one driver's timing data for a single lap. Laps are comparable, so two laps
// are duplicates exactly when they are ==.
type Lap struct {
	Category    string      `json:"Category"`
	Event       string      `json:"Event"`
	Subcategory Subcategory `json:"Subcategory"`
	Driver      string      `json:"Driver"`
	Timestamp   string      `json:"Timestamp"`
	// LapNumber is 0 when the source row had a lap time but no lap number.
	LapNumber int      `json:"LapNumber"`
	LapTime   Duration `json:"LapTime"`
	Sector1   Duration `json:"Sector1"`
	Sector2   Duration `json:"Sector2"`
	Sector3   Duration `json:"Sector3"`
	TopSpeed  Speed    `json:"TopSpeed"`
}

func (l Lap) Sectors() []Duration {
	return []Duration{l.Sector1, l.Sector2, l.Sector3}
}

// Table is an ordered set of laps, possibly from several files.
type Table []Lap

func (t Table) Empty() bool {
	return len(t) == 0
}

// Concat joins tables in order, skipping empty ones.
func Concat(tables ...Table) Table {
	var out Table

	for _, table := range tables {
		if table.Empty() {
			continue
		}

		out = append(out, table...)
	}

	return out
}

// Dedup removes laps that are exactly equal to an earlier lap, keeping order.
//
// TODO: equality includes the free-text timestamp, so the same lap exported twice with a
// different time-of-day format survives. Match on (category, event, driver, lap) instead.
func (t Table) Dedup() Table {
	seen := make(map[Lap]bool, len(t))
	out := make(Table, 0, len(t))

	for _, lap := range t {
		if seen[lap] {
			continue
		}

		seen[lap] = true
		out = append(out, lap)
	}

	return out
}

func (t Table) Categories() []string {
	return t.unique(func(l Lap) string { return l.Category })
}

func (t Table) Events(category string) []string {
	return t.Filter(Filter{Category: category}).unique(func(l Lap) string { return l.Event })
}

func (t Table) Subcategories() []string {
	return t.unique(func(l Lap) string { return l.Subcategory.String() })
}

func (t Table) Drivers() []string {
	return t.unique(func(l Lap) string { return l.Driver })
}

func (t Table) LapNumbers() []int {
	seen := make(map[int]bool)
	var out []int

	for _, lap := range t {
		if lap.LapNumber == 0 || seen[lap.LapNumber] {
			continue
		}

		seen[lap.LapNumber] = true
		out = append(out, lap.LapNumber)
	}

	sort.Ints(out)

	return out
}

func (t Table) unique(field func(Lap) string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, lap := range t {
		v := field(lap)

		if v == "" || seen[v] {
			continue
		}

		seen[v] = true
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}

// Filter selects laps. Empty fields match everything.
type Filter struct {
	Category      string
	Event         string
	Subcategories []string
	Drivers       []string
	Laps          []int
}

func (f Filter) matches(l Lap) bool {
	if f.Category != "" && l.Category != f.Category {
		return false
	}

	if f.Event != "" && l.Event != f.Event {
		return false
	}

	if len(f.Subcategories) > 0 && !containsString(f.Subcategories, l.Subcategory.String()) {
		return false
	}

	if len(f.Drivers) > 0 && !containsString(f.Drivers, l.Driver) {
		return false
	}

	if len(f.Laps) > 0 {
		found := false

		for _, n := range f.Laps {
			if n == l.LapNumber {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

func (t Table) Filter(f Filter) Table {
	var out Table

	for _, lap := range t {
		if f.matches(lap) {
			out = append(out, lap)
		}
	}

	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
