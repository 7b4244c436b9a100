package laptimes

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
)

func TestDebugger_BuildDebugInfo(t *testing.T) {
	sm, store := newTestSessionManager(t)

	if _, err := sm.Import("Interlagos - Etapa 1.csv", []byte(testLayoutA)); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveSession("broken.csv", []byte("not a timing export")); err != nil {
		t.Fatal(err)
	}

	if _, err := sm.SaveMapping([]byte(testMapping)); err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)

	if err := NewDebugger(sm).BuildDebugInfo(buf); err != nil {
		t.Fatal(err)
	}

	z, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))

	if err != nil {
		t.Fatal(err)
	}

	files := make(map[string]*zip.File)

	for _, f := range z.File {
		files[f.Name] = f
	}

	for _, name := range []string{"sessions/Interlagos - Etapa 1.csv", "sessions/broken.csv", "reports.json", "mapping.csv", "consolidated.csv", "warnings.json"} {
		if _, ok := files[name]; !ok {
			t.Errorf("expected %s in debug bundle", name)
		}
	}

	f, err := files["reports.json"].Open()

	if err != nil {
		t.Fatal(err)
	}

	defer f.Close()

	var reports []debugReport

	if err := json.NewDecoder(f).Decode(&reports); err != nil {
		t.Fatal(err)
	}

	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	// sessions are listed by name, so broken.csv comes first.
	if reports[0].Layout != "unrecognized" || reports[0].Warning == "" {
		t.Errorf("expected broken.csv to be unrecognized, got %+v", reports[0])
	}

	if reports[1].Layout != "A" || reports[1].Laps != 3 {
		t.Errorf("expected 3 laps in layout A, got %+v", reports[1])
	}
}
