package services

import (
	"reflect"
	"testing"
)

func TestSplitParagraphsXML(t *testing.T) {
	raw := `<article><body>` +
		`<p>First paragraph with <italic>markup</italic>.</p>` +
		`<sec><p>Second &amp; final paragraph.</p></sec>` +
		`</body></article>`

	got := SplitParagraphs(raw)
	want := []string{
		"First paragraph with markup .",
		"Second & final paragraph.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitParagraphsBlankLines(t *testing.T) {
	raw := "First block.\n\nSecond block\nspanning two lines.\n\n\nThird block."

	got := SplitParagraphs(raw)
	want := []string{
		"First block.",
		"Second block\nspanning two lines.",
		"Third block.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitParagraphsSingleTitle(t *testing.T) {
	got := SplitParagraphs("A study of insulin receptor signaling")
	if len(got) != 1 || got[0] != "A study of insulin receptor signaling" {
		t.Errorf("got %v, want single-element list", got)
	}
}

func TestSplitParagraphsEmpty(t *testing.T) {
	if got := SplitParagraphs("   \n\n  "); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
