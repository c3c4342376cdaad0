package services

import (
	"html"
	"regexp"
	"strings"
)

var (
	pTagRegex      = regexp.MustCompile(`(?s)<p\b[^>]*>(.*?)</p>`)
	innerTagRegex  = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLineRegex = regexp.MustCompile(`\n\s*\n`)
)

// SplitParagraphs zerlegt Roh-Inhalt in eine geordnete Absatzliste. Bei
// XML/HTML-Inhalten zählen die <p>-Elemente, sonst trennen Leerzeilen. Ein
// Titel ohne beides ergibt eine einelementige Liste.
func SplitParagraphs(raw string) []string {
	matches := pTagRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) > 0 {
		paragraphs := make([]string, 0, len(matches))
		for _, match := range matches {
			text := innerTagRegex.ReplaceAllString(match[1], " ")
			text = html.UnescapeString(text)
			text = strings.Join(strings.Fields(text), " ")
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
		if len(paragraphs) > 0 {
			return paragraphs
		}
	}

	var paragraphs []string
	for _, block := range blankLineRegex.Split(raw, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}
