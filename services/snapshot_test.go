package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGzipFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snapshot.db")
	payload := []byte("not really a database, but good enough")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	compressed := filepath.Join(dir, "snapshot.db.gz")
	if err := gzipFile(src, compressed); err != nil {
		t.Fatal(err)
	}
	restored := filepath.Join(dir, "restored.db")
	if err := gunzipFile(compressed, restored); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestGunzipFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.gz")
	if err := os.WriteFile(src, []byte("not gzip at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := gunzipFile(src, filepath.Join(dir, "out.db")); err == nil {
		t.Fatal("expected error for invalid gzip data")
	}
}
