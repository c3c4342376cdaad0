package services

import (
	"reflect"
	"testing"

	"lit-lite/models"
)

func TestFilterParagraphs(t *testing.T) {
	paragraphs := []string{
		"INSR is a gene.",
		"This paragraph mentions nothing of interest.",
		"Insulin receptor (INSR) signaling was observed.",
	}

	got := FilterParagraphs(paragraphs, []string{"INSR"})
	want := "INSR is a gene.\nInsulin receptor (INSR) signaling was observed.\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilterParagraphsTokenBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		paragraph string
		entry     string
		keep      bool
	}{
		{"exact token", "INSR binds insulin.", "INSR", true},
		{"token at end", "The receptor is INSR", "INSR", true},
		{"substring only", "The INSRX variant differs.", "INSR", false},
		{"preceded by letter", "xINSR is not a match.", "INSR", false},
		{"punctuation boundary", "We studied INSR, then stopped.", "INSR", true},
		{"regex metacharacters literal", "The IL-2 pathway.", "IL-2", true},
		{"n-gram", "insulin receptor signaling", "insulin receptor", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterParagraphs([]string{tt.paragraph}, []string{tt.entry})
			kept := len(got) > 1
			if kept != tt.keep {
				t.Errorf("FilterParagraphs(%q, %q) kept=%v, want %v",
					tt.paragraph, tt.entry, kept, tt.keep)
			}
		})
	}
}

func TestFilterParagraphsEmptyContains(t *testing.T) {
	paragraphs := []string{"one", "two"}
	got := FilterParagraphs(paragraphs, nil)
	if got != "one\ntwo\n" {
		t.Errorf("got %q, want %q", got, "one\ntwo\n")
	}
}

func TestFilterParagraphsNoSurvivors(t *testing.T) {
	got := FilterParagraphs([]string{"nothing here"}, []string{"INSR"})
	if got != "\n" {
		t.Errorf("got %q, want %q", got, "\n")
	}
}

func testContent() *TextContent {
	return NewTextContent([]ContentRow{
		{TextRefID: 1, TextType: models.TextTypeFulltext, Paragraphs: []string{"INSR is a gene.", "Unrelated text."}},
		{TextRefID: 2, TextType: models.TextTypeAbstract, Paragraphs: []string{"About INSR."}},
		{TextRefID: 3, TextType: models.TextTypeTitle, Paragraphs: []string{"A study of kinases"}},
		{TextRefID: 4, TextType: models.TextTypeAbstract, Paragraphs: []string{"Nothing relevant."}},
	})
}

func TestTextContentLen(t *testing.T) {
	content := testContent()
	if content.Len() != 4 {
		t.Errorf("Len() = %d, want 4", content.Len())
	}
}

func TestTextContentIterationOrder(t *testing.T) {
	content := testContent()
	var order []int64
	content.ForEach(func(textRefID int64, textType string, paragraphs []string) {
		order = append(order, textRefID)
	})
	want := []int64{1, 2, 4, 3}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("iteration order = %v, want %v", order, want)
	}
}

func TestProcessFiltersTokens(t *testing.T) {
	content := testContent()
	result := content.Process([]string{"INSR"}, nil)

	if result.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", result.Len())
	}
	text, ok := result.Text(1)
	if !ok {
		t.Fatal("text_ref_id 1 missing from result")
	}
	if text != "INSR is a gene.\n" {
		t.Errorf("got %q, want %q", text, "INSR is a gene.\n")
	}
	if _, ok := result.Text(4); ok {
		t.Error("text_ref_id 4 should have been dropped")
	}
}

func TestProcessFiltersTextTypes(t *testing.T) {
	content := testContent()
	result := content.Process(nil, []string{models.TextTypeAbstract})

	if result.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", result.Len())
	}
	if _, ok := result.Text(1); ok {
		t.Error("fulltext should have been excluded")
	}
	if _, ok := result.Text(2); !ok {
		t.Error("abstract for text_ref_id 2 missing")
	}
}

func TestProcessLeavesSourceUntouched(t *testing.T) {
	content := testContent()
	first := content.Process([]string{"INSR"}, nil)
	second := content.Process([]string{"INSR"}, nil)

	if content.Len() != 4 {
		t.Errorf("source Len() changed to %d", content.Len())
	}
	if first.Len() != second.Len() {
		t.Errorf("repeated Process differs: %d vs %d", first.Len(), second.Len())
	}
	textFirst, _ := first.Text(1)
	textSecond, _ := second.Text(1)
	if textFirst != textSecond {
		t.Errorf("repeated Process differs: %q vs %q", textFirst, textSecond)
	}
}

func TestProcessEmptyTextTypesIncludesAll(t *testing.T) {
	content := testContent()
	result := content.Process(nil, nil)
	if result.Len() != 4 {
		t.Errorf("Len() = %d, want 4", result.Len())
	}
}
