package laptimes

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"justapengu.in/laptimes/internal/timing"
)

// Debugger serves a zip of everything needed to reproduce an ingestion problem: the raw
// saved sessions, the mapping, per-file reports and the consolidated output.
type Debugger struct {
	sessionManager *SessionManager
}

func NewDebugger(sessionManager *SessionManager) *Debugger {
	return &Debugger{sessionManager: sessionManager}
}

func (d *Debugger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Disposition", fmt.Sprintf(`attachment;filename="laptimes_debug_bundle_%s.zip"`, time.Now().Format("2006-01-02_15_04")))
	w.Header().Add("Content-Type", "application/zip")

	if err := d.BuildDebugInfo(w); err != nil {
		logrus.WithError(err).Error("Could not build debug information")
		http.Error(w, "Could not build debug information", http.StatusInternalServerError)
		return
	}
}

type debugReport struct {
	Filename string `json:"filename"`
	Layout   string `json:"layout"`
	Laps     int    `json:"laps"`
	Warning  string `json:"warning,omitempty"`
}

func (d *Debugger) BuildDebugInfo(w io.Writer) (err error) {
	z := zip.NewWriter(w)
	defer func() {
		closeErr := z.Close()

		if err == nil {
			err = closeErr
		}
	}()

	store := d.sessionManager.store

	names, err := store.ListSessions()

	if err != nil {
		return err
	}

	reports := make([]debugReport, 0, len(names))

	for _, name := range names {
		data, err := store.LoadSession(name)

		if err != nil {
			reports = append(reports, debugReport{Filename: name, Warning: err.Error()})
			continue
		}

		if err := d.addFileToZip(z, "sessions/"+name, data); err != nil {
			return err
		}

		_, report := timing.Ingest(data, name)

		reports = append(reports, debugReport{
			Filename: report.Filename,
			Layout:   report.Layout.String(),
			Laps:     report.Laps,
			Warning:  report.Warning(),
		})
	}

	if err := d.addJSONFileToZip(z, "reports.json", reports); err != nil {
		return err
	}

	if mapping, err := store.LoadMapping(); err == nil {
		if err := d.addFileToZip(z, "mapping.csv", mapping); err != nil {
			return err
		}
	}

	consolidated := new(bytes.Buffer)

	warnings, err := d.sessionManager.Consolidate(consolidated)

	if err != nil {
		return err
	}

	if err := d.addFileToZip(z, "consolidated.csv", consolidated.Bytes()); err != nil {
		return err
	}

	return d.addJSONFileToZip(z, "warnings.json", warnings)
}

func (d *Debugger) addJSONFileToZip(z *zip.Writer, filename string, data interface{}) error {
	f, err := z.Create(filename)

	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(data)
}

func (d *Debugger) addFileToZip(z *zip.Writer, filename string, data []byte) error {
	f, err := z.Create(filename)

	if err != nil {
		return err
	}

	_, err = f.Write(data)

	return err
}
