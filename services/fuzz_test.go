package services

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestContentFuzzerKeepsTokens(t *testing.T) {
	text := "The INSR gene encodes the insulin receptor."
	fuzzed := NewContentFuzzer(1729).Fuzz(text)

	got := strings.Fields(fuzzed)
	want := tokenRegex.FindAllString(strings.ToLower(text), -1)
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("token sets differ: got %v, want %v", got, want)
	}
}

func TestContentFuzzerDeterministic(t *testing.T) {
	text := "one two three four five six seven eight"
	first := NewContentFuzzer(42).Fuzz(text)
	second := NewContentFuzzer(42).Fuzz(text)
	if first != second {
		t.Errorf("same seed produced %q and %q", first, second)
	}
}

func TestCopyCompressedBestContent(t *testing.T) {
	src := newTestStore(t)
	if err := src.EnsureTable("best_content"); err != nil {
		t.Fatal(err)
	}
	err := src.DB.Exec(`
		INSERT INTO best_content (id, text_ref_id, text_content_id1, text_type, content)
		VALUES (1, 10, 100, 'abstract', '["About INSR.","Second paragraph."]')
	`).Error
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t)
	total, err := CopyCompressedBestContent(src, dst, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("copied %d rows, want 1", total)
	}

	rows, err := dst.DB.Raw("SELECT content FROM best_content WHERE id = 1").Rows()
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("copied row missing")
	}
	var content any
	if err := rows.Scan(&content); err != nil {
		t.Fatal(err)
	}
	// Kopien sind immer komprimiert abgelegt.
	blob, ok := content.([]byte)
	if !ok || len(blob) < 2 || blob[0] != 0x78 {
		t.Fatalf("content not stored as zlib blob: %T", content)
	}
	paragraphs, err := decodeStoredContent(content)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"About INSR.", "Second paragraph."}
	if !reflect.DeepEqual(paragraphs, want) {
		t.Errorf("got %v, want %v", paragraphs, want)
	}
}

func TestCopyCompressedBestContentFuzzes(t *testing.T) {
	src := newTestStore(t)
	if err := src.EnsureTable("best_content"); err != nil {
		t.Fatal(err)
	}
	err := src.DB.Exec(`
		INSERT INTO best_content (id, text_ref_id, text_content_id1, text_type, content)
		VALUES (1, 10, 100, 'abstract', '["The INSR gene encodes the insulin receptor."]')
	`).Error
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t)
	if _, err := CopyCompressedBestContent(src, dst, NewContentFuzzer(1729), zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	rows, err := dst.DB.Raw("SELECT content FROM best_content WHERE id = 1").Rows()
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("copied row missing")
	}
	var content any
	if err := rows.Scan(&content); err != nil {
		t.Fatal(err)
	}
	paragraphs, err := decodeStoredContent(content)
	if err != nil {
		t.Fatal(err)
	}
	if len(paragraphs) != 1 {
		t.Fatalf("got %d paragraphs, want 1", len(paragraphs))
	}
	if paragraphs[0] == "The INSR gene encodes the insulin receptor." {
		t.Error("content was not fuzzed")
	}
	if !strings.Contains(paragraphs[0], "insr") {
		t.Errorf("fuzzed content lost tokens: %q", paragraphs[0])
	}
}
