package timing

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Labels are the category and event attached to files that do not carry their own.
type Labels struct {
	Category string
	Event    string
}

var (
	knownSuffixes       = []string{".csv", ".txt"}
	duplicateCopySuffix = regexp.MustCompile(`\s*\(\d+\)$`)
)

// LabelsFromFilename derives labels from a file name such as "Interlagos - Etapa 3 - Final.csv":
// the part before the first " - " is the category, the rest the event.
func LabelsFromFilename(filename string) Labels {
	stem := strings.TrimSpace(filepath.Base(filepath.ToSlash(filename)))

	if filename == "" || stem == "." || stem == "/" {
		return Labels{Category: UnknownLocation, Event: UnnamedSession}
	}

	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(strings.ToLower(stem), suffix) {
			stem = stem[:len(stem)-len(suffix)]
			break
		}
	}

	stem = strings.TrimSpace(duplicateCopySuffix.ReplaceAllString(stem, ""))

	parts := strings.Split(stem, " - ")

	if len(parts) == 1 {
		if stem == "" {
			stem = UnnamedSession
		}

		return Labels{Category: UnknownLocation, Event: stem}
	}

	labels := Labels{
		Category: strings.TrimSpace(parts[0]),
		Event:    strings.TrimSpace(strings.Join(parts[1:], " - ")),
	}

	if labels.Category == "" {
		labels.Category = UnknownLocation
	}

	if labels.Event == "" {
		labels.Event = UnnamedSession
	}

	return labels
}

// Report describes the outcome of ingesting one file.
type Report struct {
	Filename string
	Layout   Layout
	Laps     int
	// Err is set when the file could not be read at all.
	Err error
}

// Warning returns a user facing message for files that contributed no laps.
func (r Report) Warning() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("Could not read %s: %s", r.Filename, r.Err)
	case r.Layout == LayoutUnrecognized:
		return fmt.Sprintf("Could not process %s: unknown format", r.Filename)
	case r.Laps == 0:
		return fmt.Sprintf("%s contains no laps", r.Filename)
	default:
		return ""
	}
}

// Ingest reads the contents of one timing export. Unrecognized files produce an empty table.
func Ingest(data []byte, filename string) (Table, Report) {
	labels := LabelsFromFilename(filename)
	raw := parseRaw(data)

	table := normalizeRaw(raw.laps(labels))

	report := Report{
		Filename: filename,
		Layout:   raw.layout(),
		Laps:     len(table),
	}

	logger := logrus.WithFields(logrus.Fields{"file": filename, "layout": report.Layout})

	if report.Layout == LayoutUnrecognized {
		logger.Warn("Could not detect timing export layout")
		return nil, report
	}

	logger.Debugf("Ingested %d laps", report.Laps)

	return table, report
}

// IngestFile reads and ingests the file at path. filename is used for labels, defaulting to
// the base name of path.
func IngestFile(path, filename string) (Table, Report) {
	if filename == "" {
		filename = filepath.Base(path)
	}

	data, err := readFile(path)

	if err != nil {
		logrus.WithError(err).Warnf("Could not read timing export: %s", path)
		return nil, Report{Filename: filename, Err: err}
	}

	return Ingest(data, filename)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "timing: open")
	}

	defer f.Close()

	data, err := ioutil.ReadAll(f)

	if err != nil {
		return nil, errors.Wrap(err, "timing: read")
	}

	return data, nil
}

// Source is one file of a batch ingestion. Data takes precedence over Path.
type Source struct {
	Filename string
	Path     string
	Data     []byte
}

// IngestAll ingests each source in order and concatenates the non-empty results. A bad file
// only costs its own contribution.
func IngestAll(sources []Source) (Table, []Report) {
	tables := make([]Table, 0, len(sources))
	reports := make([]Report, 0, len(sources))

	for _, source := range sources {
		var table Table
		var report Report

		if source.Data != nil || source.Path == "" {
			table, report = Ingest(source.Data, source.Filename)
		} else {
			table, report = IngestFile(source.Path, source.Filename)
		}

		tables = append(tables, table)
		reports = append(reports, report)
	}

	return Concat(tables...), reports
}
