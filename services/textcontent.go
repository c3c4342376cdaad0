package services

import (
	"fmt"
	"regexp"
	"strings"

	"lit-lite/models"
)

// paragraphBucket hält Absatzlisten je text_ref_id in Einfügereihenfolge.
type paragraphBucket struct {
	order []int64
	items map[int64][]string
}

func newParagraphBucket() paragraphBucket {
	return paragraphBucket{items: make(map[int64][]string)}
}

func (b *paragraphBucket) add(textRefID int64, paragraphs []string) {
	if _, ok := b.items[textRefID]; !ok {
		b.order = append(b.order, textRefID)
	}
	b.items[textRefID] = paragraphs
}

// textBucket hält fertige Klartexte je text_ref_id in Einfügereihenfolge.
type textBucket struct {
	order []int64
	items map[int64]string
}

func newTextBucket() textBucket {
	return textBucket{items: make(map[int64]string)}
}

func (b *textBucket) add(textRefID int64, text string) {
	if _, ok := b.items[textRefID]; !ok {
		b.order = append(b.order, textRefID)
	}
	b.items[textRefID] = text
}

// ContentRow ist eine Inhaltszeile aus dem lokalen Store, bereits in ihre
// Absatzliste dekodiert.
type ContentRow struct {
	TextRefID  int64
	TextType   string
	Paragraphs []string
}

// TextContent sammelt Inhaltszeilen in drei Buckets (Volltexte, Abstracts,
// Titel). Die Iterationsreihenfolge ist Volltexte, dann Abstracts, dann Titel,
// innerhalb eines Buckets die Einfügereihenfolge.
type TextContent struct {
	fulltexts paragraphBucket
	abstracts paragraphBucket
	titles    paragraphBucket
}

// NewTextContent baut ein TextContent aus Inhaltszeilen. Zeilen mit
// unbekanntem text_type werden ignoriert.
func NewTextContent(rows []ContentRow) *TextContent {
	tc := &TextContent{
		fulltexts: newParagraphBucket(),
		abstracts: newParagraphBucket(),
		titles:    newParagraphBucket(),
	}
	for _, row := range rows {
		switch row.TextType {
		case models.TextTypeFulltext:
			tc.fulltexts.add(row.TextRefID, row.Paragraphs)
		case models.TextTypeAbstract:
			tc.abstracts.add(row.TextRefID, row.Paragraphs)
		case models.TextTypeTitle:
			tc.titles.add(row.TextRefID, row.Paragraphs)
		}
	}
	return tc
}

// Len ist die Gesamtzahl gehaltener Inhalte über alle Buckets.
func (tc *TextContent) Len() int {
	return len(tc.fulltexts.items) + len(tc.abstracts.items) + len(tc.titles.items)
}

// Paragraphs liefert die Absatzliste zu einer text_ref_id, Buckets in
// Iterationsreihenfolge durchsucht.
func (tc *TextContent) Paragraphs(textRefID int64) ([]string, bool) {
	for _, bucket := range []*paragraphBucket{&tc.fulltexts, &tc.abstracts, &tc.titles} {
		if paragraphs, ok := bucket.items[textRefID]; ok {
			return paragraphs, true
		}
	}
	return nil, false
}

// ForEach ruft fn für jeden Inhalt in Iterationsreihenfolge auf.
func (tc *TextContent) ForEach(fn func(textRefID int64, textType string, paragraphs []string)) {
	for _, textRefID := range tc.fulltexts.order {
		fn(textRefID, models.TextTypeFulltext, tc.fulltexts.items[textRefID])
	}
	for _, textRefID := range tc.abstracts.order {
		fn(textRefID, models.TextTypeAbstract, tc.abstracts.items[textRefID])
	}
	for _, textRefID := range tc.titles.order {
		fn(textRefID, models.TextTypeTitle, tc.titles.items[textRefID])
	}
}

// String fasst die Bucket-Größen zusammen.
func (tc *TextContent) String() string {
	return fmt.Sprintf("TextContent(%d fulltexts, %d abstracts, %d titles)",
		len(tc.fulltexts.items), len(tc.abstracts.items), len(tc.titles.items))
}

// FilterParagraphs verbindet die Absätze, die mindestens einen der Einträge
// als eigenständiges Token oder n-Gramm enthalten, mit Zeilenumbrüchen und
// hängt einen abschließenden Umbruch an. Eine leere Eintragsliste behält
// alle Absätze.
func FilterParagraphs(paragraphs []string, contains []string) string {
	if len(contains) == 0 {
		return strings.Join(paragraphs, "\n") + "\n"
	}
	parts := make([]string, len(contains))
	for i, entry := range contains {
		parts[i] = `(^|[^\w])` + regexp.QuoteMeta(entry) + `([^\w]|$)`
	}
	pattern := regexp.MustCompile(strings.Join(parts, "|"))

	var kept []string
	for _, paragraph := range paragraphs {
		if pattern.MatchString(paragraph) {
			kept = append(kept, paragraph)
		}
	}
	return strings.Join(kept, "\n") + "\n"
}

// Plaintexts ist das Ergebnis einer Verarbeitung: je text_ref_id ein fertiger
// Klartext, in denselben drei Buckets wie das Ausgangsobjekt.
type Plaintexts struct {
	fulltexts textBucket
	abstracts textBucket
	titles    textBucket
}

// Len ist die Gesamtzahl gehaltener Klartexte.
func (p *Plaintexts) Len() int {
	return len(p.fulltexts.items) + len(p.abstracts.items) + len(p.titles.items)
}

// Text liefert den Klartext zu einer text_ref_id, Buckets in
// Iterationsreihenfolge durchsucht.
func (p *Plaintexts) Text(textRefID int64) (string, bool) {
	for _, bucket := range []*textBucket{&p.fulltexts, &p.abstracts, &p.titles} {
		if text, ok := bucket.items[textRefID]; ok {
			return text, true
		}
	}
	return "", false
}

// ForEach ruft fn für jeden Klartext in Iterationsreihenfolge auf.
func (p *Plaintexts) ForEach(fn func(textRefID int64, textType string, text string)) {
	for _, textRefID := range p.fulltexts.order {
		fn(textRefID, models.TextTypeFulltext, p.fulltexts.items[textRefID])
	}
	for _, textRefID := range p.abstracts.order {
		fn(textRefID, models.TextTypeAbstract, p.abstracts.items[textRefID])
	}
	for _, textRefID := range p.titles.order {
		fn(textRefID, models.TextTypeTitle, p.titles.items[textRefID])
	}
}

// Process verbindet die Absätze jedes Inhalts zu einem Klartext, optional
// gefiltert auf Absätze mit bestimmten Tokens und auf bestimmte text_types.
// Das Ausgangsobjekt bleibt unverändert; Ergebnisse mit Länge ≤ 1 entfallen.
// Eine leere text_types-Liste schließt alle drei Typen ein.
func (tc *TextContent) Process(contains []string, textTypes []string) *Plaintexts {
	included := func(textType string) bool {
		if len(textTypes) == 0 {
			return true
		}
		for _, t := range textTypes {
			if t == textType {
				return true
			}
		}
		return false
	}
	result := &Plaintexts{
		fulltexts: newTextBucket(),
		abstracts: newTextBucket(),
		titles:    newTextBucket(),
	}
	fill := func(src *paragraphBucket, dst *textBucket, textType string) {
		if !included(textType) {
			return
		}
		for _, textRefID := range src.order {
			text := FilterParagraphs(src.items[textRefID], contains)
			if len(text) > 1 {
				dst.add(textRefID, text)
			}
		}
	}
	fill(&tc.fulltexts, &result.fulltexts, models.TextTypeFulltext)
	fill(&tc.abstracts, &result.abstracts, models.TextTypeAbstract)
	fill(&tc.titles, &result.titles, models.TextTypeTitle)
	return result
}
