package timing

import (
	"bytes"
	"encoding/csv"
	"io/ioutil"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"golang.org/x/text/encoding/charmap"
)

// Layout is the shape of a timing export.
type Layout int

const (
	// LayoutUnrecognized files produce no laps.
	LayoutUnrecognized Layout = iota
	// LayoutA is a ';' separated table already close to the canonical columns.
	LayoutA
	// LayoutB is a ',' separated transponder export: banner lines, then a "Lap, Lap Tm, ..."
	// header, with driver names interleaved as rows in the time of day column.
	LayoutB
)

func (l Layout) String() string {
	switch l {
	case LayoutA:
		return "A"
	case LayoutB:
		return "B"
	default:
		return "unrecognized"
	}
}

// DetectLayout classifies raw file contents. It never fails; unreadable input is LayoutUnrecognized.
func DetectLayout(data []byte) Layout {
	return parseRaw(data).layout()
}

type column int

const (
	colCategory column = iota
	colEvent
	colSubcategory
	colDriver
	colTimestamp
	colLapNumber
	colLapTime
	colSector1
	colSector2
	colSector3
	colTopSpeed
	numColumns
)

// columnAliases maps a header (after JoinKey and '_' -> ' ') to its canonical column.
var columnAliases = map[string]column{
	"local":                colCategory,
	"location":             colCategory,
	"category":             colCategory,
	"evento":               colEvent,
	"event":                colEvent,
	"categoria":            colSubcategory,
	"subcategoria":         colSubcategory,
	"subcategory":          colSubcategory,
	"piloto":               colDriver,
	"driver":               colDriver,
	"horario":              colTimestamp,
	"timestamp":            colTimestamp,
	"time of day":          colTimestamp,
	"volta":                colLapNumber,
	"lap number":           colLapNumber,
	"tempo total da volta": colLapTime,
	"lap time":             colLapTime,
	"setor 1":              colSector1,
	"sector 1":             colSector1,
	"setor 2":              colSector2,
	"sector 2":             colSector2,
	"setor 3":              colSector3,
	"sector 3":             colSector3,
	"top speed":            colTopSpeed,
	"velocidade":           colTopSpeed,
}

// layoutBColumns are the literal LayoutB header names.
var layoutBColumns = map[string]column{
	"Lap":    colLapNumber,
	"Lap Tm": colLapTime,
	"S1 Tm":  colSector1,
	"S2 Tm":  colSector2,
	"S3 Tm":  colSector3,
	"Speed":  colTopSpeed,
}

var timeOfDayPattern = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}\.\d{1,3}$`)

// columnIndex holds the position of each canonical column in a raw row, -1 when absent.
type columnIndex [numColumns]int

func newColumnIndex() columnIndex {
	var idx columnIndex

	for i := range idx {
		idx[i] = -1
	}

	return idx
}

func (idx columnIndex) has(c column) bool {
	return idx[c] >= 0
}

func (idx columnIndex) cell(row []string, c column) string {
	i := idx[c]

	if i < 0 || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// rawTable is the result of reading a file in one of the supported layouts.
type rawTable interface {
	layout() Layout
	// laps maps the raw rows onto canonical string cells, using labels where the file has none.
	laps(labels Labels) []rawLap
}

type rawLayoutA struct {
	columns columnIndex
	rows    [][]string
}

func (rawLayoutA) layout() Layout { return LayoutA }

type rawLayoutB struct {
	columns   columnIndex
	timeOfDay int
	rows      [][]string
}

func (rawLayoutB) layout() Layout { return LayoutB }

type unrecognized struct{}

func (unrecognized) layout() Layout { return LayoutUnrecognized }

func (unrecognized) laps(Labels) []rawLap { return nil }

func parseRaw(data []byte) rawTable {
	text := decodeText(data)

	if raw, ok := parseLayoutA(text); ok {
		return raw
	}

	if raw, ok := parseLayoutB(text); ok {
		return raw
	}

	return unrecognized{}
}

// decodeText strips a UTF-8 BOM and returns the file as UTF-8. Files that are not valid
// UTF-8 are read as Windows-1252.
func decodeText(data []byte) string {
	stripped, err := ioutil.ReadAll(utfbom.SkipOnly(bytes.NewReader(data)))

	if err != nil {
		stripped = data
	}

	if utf8.Valid(stripped) {
		return string(stripped)
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(stripped)

	if err != nil {
		return strings.ToValidUTF8(string(stripped), "")
	}

	return string(decoded)
}

func newCSVReader(text string, comma rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	return r
}

func headerKey(name string) string {
	return strings.ReplaceAll(JoinKey(name), "_", " ")
}

func parseLayoutA(text string) (rawLayoutA, bool) {
	records, err := newCSVReader(text, ';').ReadAll()

	if err != nil || len(records) == 0 {
		return rawLayoutA{}, false
	}

	columns := newColumnIndex()

	for i, name := range records[0] {
		if c, ok := columnAliases[headerKey(name)]; ok && !columns.has(c) {
			columns[c] = i
		}
	}

	if !columns.has(colDriver) || !columns.has(colLapNumber) || !columns.has(colSector1) {
		return rawLayoutA{}, false
	}

	return rawLayoutA{columns: columns, rows: records[1:]}, true
}

func parseLayoutB(text string) (rawLayoutB, bool) {
	var lines []string

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	header := -1

	for i, line := range lines {
		if strings.Contains(line, "Lap Tm") && strings.Contains(line, "Lap") {
			header = i
			break
		}
	}

	if header < 0 {
		return rawLayoutB{}, false
	}

	records, err := newCSVReader(strings.Join(lines[header:], "\n"), ',').ReadAll()

	if err != nil || len(records) == 0 {
		return rawLayoutB{}, false
	}

	width := len(records[0])
	columns := newColumnIndex()

	for i, name := range records[0] {
		if c, ok := layoutBColumns[strings.TrimSpace(name)]; ok && !columns.has(c) {
			columns[c] = i
		}
	}

	if !columns.has(colLapNumber) || !columns.has(colLapTime) {
		return rawLayoutB{}, false
	}

	rows := make([][]string, 0, len(records)-1)

	for _, record := range records[1:] {
		rows = append(rows, fitRow(record, width))
	}

	raw := rawLayoutB{
		columns:   columns,
		timeOfDay: findTimeOfDayColumn(rows, width),
		rows:      rows,
	}

	if raw.timeOfDay < 0 && !raw.hasTimedRow() {
		return rawLayoutB{}, false
	}

	return raw, true
}

// fitRow folds surplus trailing fields into the last column. Unquoted comma decimals
// ("180,5") in the last column split into an extra field in ',' separated exports.
func fitRow(record []string, width int) []string {
	if width == 0 || len(record) <= width {
		return record
	}

	row := make([]string, width)
	copy(row, record[:width-1])
	row[width-1] = strings.Join(record[width-1:], ",")

	return row
}

func findTimeOfDayColumn(rows [][]string, width int) int {
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if col < len(row) && timeOfDayPattern.MatchString(strings.TrimSpace(row[col])) {
				return col
			}
		}
	}

	return -1
}

func (raw rawLayoutB) hasTimedRow() bool {
	for _, row := range raw.rows {
		if parseLapNumber(raw.columns.cell(row, colLapNumber)) > 0 && !ParseDuration(raw.columns.cell(row, colLapTime)).IsMissing() {
			return true
		}
	}

	return false
}
