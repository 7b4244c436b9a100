package laptimes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"justapengu.in/laptimes/internal/timing"
)

var ErrUnrecognizedFormat = errors.New("laptimes: could not process file, unknown format")

// SessionManager ingests saved and uploaded timing exports into one working table.
type SessionManager struct {
	store Store
}

func NewSessionManager(store Store) *SessionManager {
	return &SessionManager{store: store}
}

// Sessions is the consolidated table of every saved session, plus the soft warnings raised
// while building it.
type Sessions struct {
	Laps     timing.Table
	Warnings []string
}

// LoadAll ingests every saved session in name order, skipping files that cannot be read,
// and resolves driver subcategories from the stored mapping.
func (sm *SessionManager) LoadAll() (*Sessions, error) {
	names, err := sm.store.ListSessions()

	if err != nil {
		return nil, err
	}

	sessions := &Sessions{}
	tables := make([]timing.Table, 0, len(names))

	for _, name := range names {
		data, err := sm.store.LoadSession(name)

		if err != nil {
			logrus.WithError(err).Warnf("Could not read saved session: %s", name)
			sessions.Warnings = append(sessions.Warnings, fmt.Sprintf("Could not read saved session %s: %s", name, err))
			continue
		}

		table, report := timing.Ingest(data, name)
		observeIngest(report)

		if warning := report.Warning(); warning != "" {
			sessions.Warnings = append(sessions.Warnings, warning)
		}

		tables = append(tables, table)
	}

	mapped, warning := sm.applyMapping(timing.Concat(tables...))

	if warning != "" {
		sessions.Warnings = append(sessions.Warnings, warning)
	}

	// dedup after mapping: laps that only differed in their embedded subcategory are now equal.
	sessions.Laps = mapped.Dedup()
	observeMapping(sessions.Laps)

	return sessions, nil
}

// Mapping loads the stored subcategory mapping.
func (sm *SessionManager) Mapping() (timing.Mapping, error) {
	data, err := sm.store.LoadMapping()

	if err != nil {
		return nil, err
	}

	return timing.LoadMapping(bytes.NewReader(data))
}

// SaveMapping validates and stores a new subcategory mapping.
func (sm *SessionManager) SaveMapping(data []byte) (timing.Mapping, error) {
	mapping, err := timing.LoadMapping(bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	if err := sm.store.SaveMapping(data); err != nil {
		return nil, err
	}

	return mapping, nil
}

func (sm *SessionManager) applyMapping(table timing.Table) (timing.Table, string) {
	var warning string

	mapping, err := sm.Mapping()

	if err != nil {
		logrus.WithError(err).Warn("Could not load subcategory mapping, all drivers will be NOT REGISTERED")
		warning = fmt.Sprintf("Subcategory mapping unavailable: %s", err)
		mapping = nil
	}

	return timing.ApplyMapping(table, mapping), warning
}

type ImportResult struct {
	ID     uuid.UUID
	Name   string
	Layout timing.Layout
	Laps   timing.Table
	Saved  bool
}

// Preview ingests an upload without saving it.
func (sm *SessionManager) Preview(filename string, data []byte) (*ImportResult, error) {
	return sm.importSession(filename, data, false)
}

// Import ingests an upload and, if its layout is recognized, saves the uploaded bytes.
func (sm *SessionManager) Import(filename string, data []byte) (*ImportResult, error) {
	return sm.importSession(filename, data, true)
}

func (sm *SessionManager) importSession(filename string, data []byte, save bool) (*ImportResult, error) {
	name, err := SanitiseSessionName(filename)

	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		ID:   uuid.New(),
		Name: name,
	}

	logger := logrus.WithFields(logrus.Fields{"import": result.ID, "file": name})
	logger.Infof("Importing timing export (%s)", humanize.Bytes(uint64(len(data))))

	table, report := timing.Ingest(data, name)
	observeIngest(report)

	result.Layout = report.Layout

	if report.Layout == timing.LayoutUnrecognized {
		return result, ErrUnrecognizedFormat
	}

	result.Laps, _ = sm.applyMapping(table)

	if !save {
		return result, nil
	}

	if err := sm.store.SaveSession(name, data); err != nil {
		logger.WithError(err).Error("Could not save session")
		return result, err
	}

	result.Saved = true

	logger.Infof("Saved session with %d laps (layout %s)", len(table), report.Layout)

	return result, nil
}

// Consolidate writes every saved session as a single canonical file.
func (sm *SessionManager) Consolidate(w io.Writer) ([]string, error) {
	sessions, err := sm.LoadAll()

	if err != nil {
		return nil, err
	}

	return sessions.Warnings, timing.WriteCSV(w, sessions.Laps)
}

// TrackMapFor finds the track map image named after a category, ignoring case.
func (sm *SessionManager) TrackMapFor(category string) (string, bool) {
	maps, err := sm.store.ListTrackMaps()

	if err != nil {
		logrus.WithError(err).Warn("Could not list track maps")
		return "", false
	}

	for _, name := range maps {
		if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), category) {
			return name, true
		}
	}

	return "", false
}
