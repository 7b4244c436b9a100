package laptimes

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"justapengu.in/laptimes/internal/timing"
)

const (
	testLayoutA = `Local;Evento;CATEGORIA;Piloto;Horário;Volta;Tempo Total da Volta;Setor 1;Setor 2;Setor 3;TOP SPEED
Interlagos;Etapa 1;;12 - José da Silva;14:32:01.123;1;1:05.234;20.100;25.034;20.100;120,5
Interlagos;Etapa 1;;12 - José da Silva;14:33:06.400;2;1:04.998;19.900;25.000;20.098;121
Interlagos;Etapa 1;;MARIA SOUZA;14:32:04.000;1;1:06.000;20.500;25.000;20.500;118
`

	testLayoutB = `Sprint Trophy - Results
Time of Day,Lap,Lap Tm,S1 Tm,S2 Tm,S3 Tm,Speed
JOHN SMITH,,,,,,
14:32:01.123,1,1:06.500,20.000,25.000,21.500,"180,5"
14:33:07.623,2,1:05.900,19.900,24.800,21.200,181.0
`

	testMapping = "Piloto;Categoria\njose da silva;PRO\nJohn Smith;Rookie\n"
)

func newTestSessionManager(t *testing.T) (*SessionManager, Store) {
	t.Helper()

	dir := t.TempDir()

	store, err := NewFilesystemStore(filepath.Join(dir, "sessions"), filepath.Join(dir, "maps"), filepath.Join(dir, "mapping.csv"))

	if err != nil {
		t.Fatal(err)
	}

	return NewSessionManager(store), store
}

func TestSessionManager_Import(t *testing.T) {
	sm, store := newTestSessionManager(t)

	result, err := sm.Import("Interlagos - Etapa 1.csv", []byte(testLayoutA))

	if err != nil {
		t.Fatal(err)
	}

	if !result.Saved || result.Layout != timing.LayoutA || len(result.Laps) != 3 {
		t.Fatalf("unexpected import result: %+v", result)
	}

	sessions, err := store.ListSessions()

	if err != nil {
		t.Fatal(err)
	}

	if len(sessions) != 1 || sessions[0] != "Interlagos - Etapa 1.csv" {
		t.Errorf("expected saved session, got %v", sessions)
	}

	t.Run("unrecognized files are not saved", func(t *testing.T) {
		result, err := sm.Import("notes.csv", []byte("Just some notes about the weekend."))

		if err != ErrUnrecognizedFormat {
			t.Fatalf("expected ErrUnrecognizedFormat, got %v", err)
		}

		if result.Saved {
			t.Error("expected unrecognized file not to be saved")
		}

		if _, err := store.LoadSession("notes.csv"); err != ErrSessionNotFound {
			t.Errorf("expected notes.csv not to exist, got %v", err)
		}
	})

	t.Run("preview does not save", func(t *testing.T) {
		result, err := sm.Preview("Granja Viana - Sprint.csv", []byte(testLayoutB))

		if err != nil {
			t.Fatal(err)
		}

		if result.Saved || result.Layout != timing.LayoutB || len(result.Laps) != 2 {
			t.Fatalf("unexpected preview result: %+v", result)
		}

		if _, err := store.LoadSession("Granja Viana - Sprint.csv"); err != ErrSessionNotFound {
			t.Errorf("expected preview not to be saved, got %v", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		if _, err := sm.Import("", []byte(testLayoutA)); err != ErrInvalidSessionName {
			t.Errorf("expected ErrInvalidSessionName, got %v", err)
		}
	})
}

func TestSessionManager_LoadAll(t *testing.T) {
	sm, store := newTestSessionManager(t)

	for name, data := range map[string]string{
		"Interlagos - Etapa 1.csv":     testLayoutA,
		"Interlagos - Etapa 1 (1).csv": testLayoutA,
		"Granja Viana - Sprint.csv":    testLayoutB,
		"broken.csv":                   "\x00\x01\x02",
	} {
		if err := store.SaveSession(name, []byte(data)); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("without mapping", func(t *testing.T) {
		sessions, err := sm.LoadAll()

		if err != nil {
			t.Fatal(err)
		}

		if len(sessions.Laps) != 5 {
			t.Fatalf("expected 5 laps after dedup, got %d", len(sessions.Laps))
		}

		for _, lap := range sessions.Laps {
			if lap.Subcategory.IsRegistered() {
				t.Errorf("expected %s to be NOT REGISTERED without a mapping", lap.Driver)
			}
		}

		if !containsWarning(sessions.Warnings, "broken.csv") {
			t.Errorf("expected warning about broken.csv, got %v", sessions.Warnings)
		}

		if !containsWarning(sessions.Warnings, "mapping") {
			t.Errorf("expected warning about the missing mapping, got %v", sessions.Warnings)
		}
	})

	t.Run("with mapping", func(t *testing.T) {
		if _, err := sm.SaveMapping([]byte(testMapping)); err != nil {
			t.Fatal(err)
		}

		sessions, err := sm.LoadAll()

		if err != nil {
			t.Fatal(err)
		}

		expected := map[string]string{
			"José da Silva": "PRO",
			"JOHN SMITH":    "Rookie",
			"MARIA SOUZA":   "NOT REGISTERED",
		}

		for _, lap := range sessions.Laps {
			if got := lap.Subcategory.String(); got != expected[lap.Driver] {
				t.Errorf("%s: expected subcategory %q, got %q", lap.Driver, expected[lap.Driver], got)
			}
		}

		if containsWarning(sessions.Warnings, "mapping") {
			t.Errorf("expected no mapping warning, got %v", sessions.Warnings)
		}
	})
}

func TestSessionManager_SaveMappingInvalid(t *testing.T) {
	sm, store := newTestSessionManager(t)

	if _, err := sm.SaveMapping([]byte("just one column\n")); err == nil {
		t.Fatal("expected a single column mapping to be rejected")
	}

	if _, err := store.LoadMapping(); err != ErrMappingNotFound {
		t.Errorf("expected invalid mapping not to be stored, got %v", err)
	}
}

func TestSessionManager_Consolidate(t *testing.T) {
	sm, store := newTestSessionManager(t)

	if _, err := sm.Import("Interlagos - Etapa 1.csv", []byte(testLayoutA)); err != nil {
		t.Fatal(err)
	}

	if _, err := sm.Import("Granja Viana - Sprint.csv", []byte(testLayoutB)); err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)

	if _, err := sm.Consolidate(buf); err != nil {
		t.Fatal(err)
	}

	if timing.DetectLayout(buf.Bytes()) != timing.LayoutA {
		t.Fatal("expected consolidated output to be readable as canonical columns")
	}

	// re-importing the consolidated output is a no-op after dedup.
	if err := store.SaveSession("consolidated.csv", buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	sessions, err := sm.LoadAll()

	if err != nil {
		t.Fatal(err)
	}

	if len(sessions.Laps) != 5 {
		t.Errorf("expected 5 laps after re-import, got %d", len(sessions.Laps))
	}
}

func TestSessionManager_TrackMapFor(t *testing.T) {
	sm, store := newTestSessionManager(t)

	if err := store.SaveTrackMap("Interlagos.PNG", []byte("png")); err != nil {
		t.Fatal(err)
	}

	if name, ok := sm.TrackMapFor("interlagos"); !ok || name != "Interlagos.PNG" {
		t.Errorf("expected Interlagos.PNG, got %q (%t)", name, ok)
	}

	if _, ok := sm.TrackMapFor("Granja Viana"); ok {
		t.Error("expected no track map for Granja Viana")
	}
}

func containsWarning(warnings []string, substr string) bool {
	for _, warning := range warnings {
		if strings.Contains(warning, substr) {
			return true
		}
	}

	return false
}

func TestSessionManager_LoadAllDedupsAfterMapping(t *testing.T) {
	sm, store := newTestSessionManager(t)

	const header = "Local;Evento;CATEGORIA;Piloto;Horário;Volta;Tempo Total da Volta;Setor 1\n"

	sessions := map[string]string{
		"Interlagos - Etapa 1.csv":     header + "Interlagos;Etapa 1;PRO;ANA;14:32:01.123;1;1:05.234;20.100\n",
		"Interlagos - Etapa 1 (1).csv": header + "Interlagos;Etapa 1;;ANA;14:32:01.123;1;1:05.234;20.100\n",
	}

	for name, data := range sessions {
		if err := store.SaveSession(name, []byte(data)); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := sm.SaveMapping([]byte("Piloto;Categoria\nANA;Rookie\n")); err != nil {
		t.Fatal(err)
	}

	loaded, err := sm.LoadAll()

	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Laps) != 1 {
		t.Fatalf("expected laps differing only in subcategory to collapse, got %d", len(loaded.Laps))
	}

	if got := loaded.Laps[0].Subcategory.String(); got != "Rookie" {
		t.Errorf("expected mapped subcategory Rookie, got %q", got)
	}
}
