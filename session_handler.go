package laptimes

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"justapengu.in/laptimes/internal/analysis"
	"justapengu.in/laptimes/internal/timing"
)

// MaxUploadSizeBytes limits the size of a single uploaded timing export.
const MaxUploadSizeBytes = 32 << 20

type SessionHandler struct {
	sessionManager *SessionManager
}

func NewSessionHandler(sessionManager *SessionManager) *SessionHandler {
	return &SessionHandler{sessionManager: sessionManager}
}

func Router(sessionManager *SessionManager) http.Handler {
	sh := NewSessionHandler(sessionManager)

	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", sh.list)
		r.Post("/sessions", sh.upload)
		r.Post("/sessions/preview", sh.preview)
		r.Delete("/sessions/{name}", sh.delete)

		r.Put("/mapping", sh.saveMapping)

		r.Get("/laps", sh.laps)
		r.Get("/leaderboard/fastest", sh.fastestLaps)
		r.Get("/leaderboard/top-speed", sh.topSpeeds)
		r.Get("/compare", sh.compare)
		r.Get("/export.csv", sh.export)

		r.Get("/track-maps", sh.trackMaps)
		r.Get("/track-maps/{name}", sh.trackMap)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/bundle.zip", NewDebugger(sessionManager))

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("could not encode json response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type sessionListResponse struct {
	Sessions []string `json:"sessions"`
}

func (sh *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := sh.sessionManager.store.ListSessions()

	if err != nil {
		logrus.WithError(err).Error("could not list sessions")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: sessions})
}

type importResponse struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Layout string    `json:"layout"`
	Saved  bool      `json:"saved"`
	Laps   []lapLine `json:"laps"`
}

func (sh *SessionHandler) upload(w http.ResponseWriter, r *http.Request) {
	sh.handleImport(w, r, sh.sessionManager.Import)
}

func (sh *SessionHandler) preview(w http.ResponseWriter, r *http.Request) {
	sh.handleImport(w, r, sh.sessionManager.Preview)
}

// handleImport reads the raw file body. The filename comes from the "filename" query
// parameter or a Content-Disposition header.
func (sh *SessionHandler) handleImport(w http.ResponseWriter, r *http.Request, importFn func(string, []byte) (*ImportResult, error)) {
	filename := uploadFilename(r)

	data, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSizeBytes))

	if err != nil {
		logrus.WithError(err).Error("could not read upload")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := importFn(filename, data)

	switch {
	case err == ErrInvalidSessionName:
		writeError(w, http.StatusBadRequest, err)
		return
	case err == ErrUnrecognizedFormat:
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		logrus.WithError(err).Errorf("could not import %s", filename)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK

	if result.Saved {
		status = http.StatusCreated
	}

	writeJSON(w, status, importResponse{
		ID:     result.ID.String(),
		Name:   result.Name,
		Layout: result.Layout.String(),
		Saved:  result.Saved,
		Laps:   toLapLines(result.Laps),
	})
}

func uploadFilename(r *http.Request) string {
	if filename := r.URL.Query().Get("filename"); filename != "" {
		return filename
	}

	if _, params, err := mime.ParseMediaType(r.Header.Get("Content-Disposition")); err == nil {
		return params["filename"]
	}

	return ""
}

func (sh *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := sh.sessionManager.store.DeleteSession(chi.URLParam(r, "name"))

	switch {
	case err == ErrSessionNotFound:
		writeError(w, http.StatusNotFound, err)
	case err == ErrInvalidSessionName:
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		logrus.WithError(err).Error("could not delete session")
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type mappingResponse struct {
	Drivers int `json:"drivers"`
}

func (sh *SessionHandler) saveMapping(w http.ResponseWriter, r *http.Request) {
	data, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSizeBytes))

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mapping, err := sh.sessionManager.SaveMapping(data)

	if err != nil {
		logrus.WithError(err).Error("could not save subcategory mapping")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, mappingResponse{Drivers: len(mapping)})
}

// lapLine is a lap as shown to users: times as "M:SS.mmm" or "---".
type lapLine struct {
	Category    string   `json:"category"`
	Event       string   `json:"event"`
	Subcategory string   `json:"subcategory"`
	Driver      string   `json:"driver"`
	Timestamp   string   `json:"timestamp"`
	LapNumber   int      `json:"lap_number"`
	LapTime     string   `json:"lap_time"`
	Sector1     string   `json:"sector_1"`
	Sector2     string   `json:"sector_2"`
	Sector3     string   `json:"sector_3"`
	TopSpeed    *float64 `json:"top_speed"`
}

func toLapLine(lap timing.Lap) lapLine {
	line := lapLine{
		Category:    lap.Category,
		Event:       lap.Event,
		Subcategory: lap.Subcategory.String(),
		Driver:      lap.Driver,
		Timestamp:   lap.Timestamp,
		LapNumber:   lap.LapNumber,
		LapTime:     timing.FormatDuration(lap.LapTime),
		Sector1:     timing.FormatDuration(lap.Sector1),
		Sector2:     timing.FormatDuration(lap.Sector2),
		Sector3:     timing.FormatDuration(lap.Sector3),
	}

	if speed, ok := lap.TopSpeed.Value(); ok {
		line.TopSpeed = &speed
	}

	return line
}

func toLapLines(table timing.Table) []lapLine {
	lines := make([]lapLine, 0, len(table))

	for _, lap := range table {
		lines = append(lines, toLapLine(lap))
	}

	return lines
}

type lapsResponse struct {
	Laps     []lapLine `json:"laps"`
	Warnings []string  `json:"warnings"`
}

// filteredLaps loads every saved session and applies the filter in the query string.
func (sh *SessionHandler) filteredLaps(w http.ResponseWriter, r *http.Request) (*Sessions, bool) {
	sessions, err := sh.sessionManager.LoadAll()

	if err != nil {
		logrus.WithError(err).Error("could not load sessions")
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}

	filter, err := filterFromQuery(r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	sessions.Laps = sessions.Laps.Filter(filter)

	return sessions, true
}

func filterFromQuery(r *http.Request) (timing.Filter, error) {
	query := r.URL.Query()

	filter := timing.Filter{
		Category:      query.Get("category"),
		Event:         query.Get("event"),
		Subcategories: query["subcategory"],
		Drivers:       query["driver"],
	}

	for _, lap := range query["lap"] {
		n, err := strconv.Atoi(lap)

		if err != nil {
			return filter, fmt.Errorf("laptimes: invalid lap number %q", lap)
		}

		filter.Laps = append(filter.Laps, n)
	}

	return filter, nil
}

func (sh *SessionHandler) laps(w http.ResponseWriter, r *http.Request) {
	sessions, ok := sh.filteredLaps(w, r)

	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, lapsResponse{Laps: toLapLines(sessions.Laps), Warnings: sessions.Warnings})
}

type leaderboardLine struct {
	Position    int     `json:"position"`
	GapToLeader string  `json:"gap_to_leader,omitempty"`
	Lap         lapLine `json:"lap"`
}

func toLeaderboard(lines []*analysis.LeaderboardLine, withGaps bool) []leaderboardLine {
	out := make([]leaderboardLine, 0, len(lines))

	for _, line := range lines {
		l := leaderboardLine{
			Position: line.Position,
			Lap:      toLapLine(line.Lap),
		}

		if withGaps {
			l.GapToLeader = analysis.FormatDelta(line.GapToLeader)
		}

		out = append(out, l)
	}

	return out
}

func (sh *SessionHandler) fastestLaps(w http.ResponseWriter, r *http.Request) {
	sessions, ok := sh.filteredLaps(w, r)

	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toLeaderboard(analysis.FastestLaps(sessions.Laps), true))
}

func (sh *SessionHandler) topSpeeds(w http.ResponseWriter, r *http.Request) {
	sessions, ok := sh.filteredLaps(w, r)

	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toLeaderboard(analysis.TopSpeeds(sessions.Laps), false))
}

type comparisonCell struct {
	Driver  string `json:"driver"`
	LapTime string `json:"lap_time"`
	Fastest bool   `json:"fastest"`
	Delta   string `json:"delta,omitempty"`
}

type comparisonRow struct {
	LapNumber int              `json:"lap_number"`
	Cells     []comparisonCell `json:"cells"`
}

type comparisonResponse struct {
	Drivers   []string        `json:"drivers"`
	Reference string          `json:"reference,omitempty"`
	Rows      []comparisonRow `json:"rows"`
}

// compare uses the "driver" query values for both the filter and the comparison order.
func (sh *SessionHandler) compare(w http.ResponseWriter, r *http.Request) {
	sessions, ok := sh.filteredLaps(w, r)

	if !ok {
		return
	}

	comparison, err := analysis.Compare(sessions.Laps, r.URL.Query()["driver"], r.URL.Query().Get("reference"))

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	response := comparisonResponse{
		Drivers:   comparison.Drivers,
		Reference: comparison.Reference,
	}

	for _, row := range comparison.Rows {
		out := comparisonRow{LapNumber: row.LapNumber}

		for _, cell := range row.Cells {
			c := comparisonCell{
				Driver:  cell.Driver,
				LapTime: timing.FormatDuration(cell.LapTime),
				Fastest: cell.Fastest,
			}

			if cell.HasDelta {
				c.Delta = analysis.FormatDelta(cell.Delta)
			}

			out.Cells = append(out.Cells, c)
		}

		response.Rows = append(response.Rows, out)
	}

	writeJSON(w, http.StatusOK, response)
}

func (sh *SessionHandler) export(w http.ResponseWriter, r *http.Request) {
	sessions, ok := sh.filteredLaps(w, r)

	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="laptimes_%s.csv"`, time.Now().Format("2006-01-02_15_04")))

	if err := timing.WriteCSV(w, sessions.Laps); err != nil {
		logrus.WithError(err).Error("could not export laps")
	}
}

func (sh *SessionHandler) trackMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := sh.sessionManager.store.ListTrackMaps()

	if err != nil {
		logrus.WithError(err).Error("could not list track maps")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		maps = nil

		if name, ok := sh.sessionManager.TrackMapFor(category); ok {
			maps = []string{name}
		}
	}

	writeJSON(w, http.StatusOK, maps)
}

func (sh *SessionHandler) trackMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, err := sh.sessionManager.store.LoadTrackMap(name)

	if err == ErrTrackMapNotFound {
		http.NotFound(w, r)
		return
	} else if err != nil {
		logrus.WithError(err).Errorf("could not load track map: %s", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	_, _ = w.Write(data)
}
