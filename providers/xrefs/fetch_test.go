package xrefs

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

func TestLoadMeshXrefs(t *testing.T) {
	tsv := "mesh_id\tcurie\n" +
		"D018599\tdoid:0050890\n" +
		"C000123\tchebi:15377\n" +
		"GO:0005634\tgo:0005634\n" +
		"D000044\t\n"
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write([]byte(tsv)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gz.Bytes())
	}))
	defer server.Close()

	cfg := &config.Config{MeshXrefsURL: server.URL}
	st := newTestStore(t)
	total, err := NewFetcher(cfg, zap.NewNop()).LoadMeshXrefs(st, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// Kopfzeile, unbekanntes Präfix und leere Curie werden übersprungen.
	if total != 2 {
		t.Fatalf("loaded %d rows, want 2", total)
	}

	var curie string
	err = st.DB.Raw(`
		SELECT curie FROM mesh_xrefs WHERE mesh_num = 18599 AND is_concept = 0
	`).Scan(&curie).Error
	if err != nil {
		t.Fatal(err)
	}
	if curie != "doid:0050890" {
		t.Errorf("got %q, want %q", curie, "doid:0050890")
	}
}
