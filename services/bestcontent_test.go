package services

import (
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

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

func seedCandidate(t *testing.T, st *store.Store, id, textRefID int64, textType, source, content string) {
	t.Helper()
	err := st.DB.Exec(`
		INSERT INTO text_content (id, text_ref_id, text_type, source, content)
		VALUES (?, ?, ?, ?, ?)
	`, id, textRefID, textType, source, content).Error
	if err != nil {
		t.Fatalf("failed to seed candidate: %v", err)
	}
}

func TestBestContentSelection(t *testing.T) {
	st := newTestStore(t)
	if err := st.EnsureTable("text_content"); err != nil {
		t.Fatal(err)
	}

	// Dokument 1: Volltext schlägt Abstract und Titel, pmc_oa schlägt elsevier.
	seedCandidate(t, st, 1, 1, "fulltext", "pmc_oa", "Full text one.")
	seedCandidate(t, st, 2, 1, "fulltext", "elsevier", "Full text one, elsevier variant.")
	seedCandidate(t, st, 3, 1, "abstract", "pubmed", "Abstract one.")
	seedCandidate(t, st, 4, 1, "title", "pubmed", "Title one")
	// Dokument 2: Abstract und Titel werden kombiniert.
	seedCandidate(t, st, 5, 2, "abstract", "pubmed", "About INSR.")
	seedCandidate(t, st, 6, 2, "title", "pubmed", "Title two")
	// Dokument 3: nur ein Titel.
	seedCandidate(t, st, 7, 3, "title", "pubmed", "Title three")
	// Dokument 4: nur ein Abstract.
	seedCandidate(t, st, 8, 4, "abstract", "pubmed", "Just an abstract.")
	// Dokument 5: Abstract-Duplikate, pubmed gewinnt.
	seedCandidate(t, st, 9, 5, "abstract", "pubmed", "Abstract five.")
	seedCandidate(t, st, 10, 5, "abstract", "cord19_abstract", "Abstract five, cord19 variant.")

	if err := NewBestContentSelector(st, zap.NewNop()).Run(); err != nil {
		t.Fatal(err)
	}

	type winner struct {
		tcid1    int64
		tcid2    *int64
		textType string
	}
	rows, err := st.DB.Raw(`
		SELECT text_ref_id, text_content_id1, text_content_id2, text_type, content
		FROM best_content
	`).Rows()
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	winners := make(map[int64]winner)
	contents := make(map[int64][]string)
	for rows.Next() {
		var (
			textRefID int64
			w         winner
			content   any
		)
		if err := rows.Scan(&textRefID, &w.tcid1, &w.tcid2, &w.textType, &content); err != nil {
			t.Fatal(err)
		}
		winners[textRefID] = w
		paragraphs, err := decodeStoredContent(content)
		if err != nil {
			t.Fatal(err)
		}
		contents[textRefID] = paragraphs
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}

	if len(winners) != 5 {
		t.Fatalf("got %d winners, want 5", len(winners))
	}

	if w := winners[1]; w.tcid1 != 1 || w.textType != "fulltext" {
		t.Errorf("document 1: got (%d, %s), want pmc_oa fulltext id 1", w.tcid1, w.textType)
	}
	if w := winners[2]; w.tcid1 != 5 || w.tcid2 == nil || *w.tcid2 != 6 || w.textType != "abstract" {
		t.Errorf("document 2: got %+v, want combined abstract (5, 6)", w)
	}
	if want := []string{"Title two", "About INSR."}; !reflect.DeepEqual(contents[2], want) {
		t.Errorf("document 2 content = %v, want %v", contents[2], want)
	}
	if w := winners[3]; w.tcid1 != 7 || w.textType != "title" {
		t.Errorf("document 3: got (%d, %s), want title id 7", w.tcid1, w.textType)
	}
	if w := winners[4]; w.tcid1 != 8 || w.textType != "abstract" {
		t.Errorf("document 4: got (%d, %s), want lone abstract id 8", w.tcid1, w.textType)
	}
	if w := winners[5]; w.tcid1 != 9 || w.textType != "abstract" {
		t.Errorf("document 5: got (%d, %s), want pubmed abstract id 9", w.tcid1, w.textType)
	}

	// Die Staging-Tabellen sind nach dem Lauf verschwunden.
	for _, table := range []string{"text_content", "combined_content"} {
		has, err := st.HasTable(table)
		if err != nil {
			t.Fatal(err)
		}
		if has {
			t.Errorf("staging table %s still present", table)
		}
	}
}

func TestSourceRankCase(t *testing.T) {
	got := sourceRankCase([]string{"pubmed", "cord19_abstract"})
	want := "CASE source WHEN 'pubmed' THEN 0 WHEN 'cord19_abstract' THEN 1 ELSE 2 END"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
