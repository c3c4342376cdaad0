package services

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"lit-lite/store"
)

var tokenRegex = regexp.MustCompile(`\w+`)

// ContentFuzzer verwürfelt die Tokens eines Textes mit einem deterministisch
// geseedeten Zufallsgenerator. Satzbau und Reihenfolge gehen verloren, die
// Token-Verteilung bleibt erhalten.
type ContentFuzzer struct {
	rng *rand.Rand
}

// NewContentFuzzer erstellt einen Fuzzer mit festem Seed.
func NewContentFuzzer(seed int64) *ContentFuzzer {
	return &ContentFuzzer{rng: rand.New(rand.NewSource(seed))}
}

// Fuzz verwürfelt die Tokens des Textes.
func (f *ContentFuzzer) Fuzz(text string) string {
	tokens := tokenRegex.FindAllString(strings.ToLower(text), -1)
	f.rng.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
	return strings.Join(tokens, " ")
}

// CopyCompressedBestContent kopiert best_content aus einem Store in einen
// anderen und komprimiert dabei jeden Inhalt. Mit Fuzzer werden die Texte
// zusätzlich verwürfelt, etwa für einen frei teilbaren Snapshot. IDs bleiben
// erhalten; vorhandene Zeilen im Ziel werden nicht überschrieben.
func CopyCompressedBestContent(
	src, dst *store.Store, fuzzer *ContentFuzzer, logger *zap.Logger,
) (int64, error) {
	if err := dst.EnsureTable("best_content"); err != nil {
		return 0, err
	}
	if err := dst.BeginBulk(); err != nil {
		return 0, err
	}

	var total int64
	lastID := int64(-1)
	for {
		rows, err := src.DB.Raw(`
			SELECT id, text_ref_id, text_content_id1, text_content_id2, text_type, content
			FROM best_content
			WHERE id > ?
			ORDER BY id
			LIMIT ?
		`, lastID, loadBatchSize).Rows()
		if err != nil {
			return total, fmt.Errorf("lesen aus best_content: %w", err)
		}

		type bestRow struct {
			id, textRefID int64
			tcid1         int64
			tcid2         *int64
			textType      string
			content       any
		}
		var batch []bestRow
		for rows.Next() {
			var row bestRow
			if err := rows.Scan(&row.id, &row.textRefID, &row.tcid1, &row.tcid2,
				&row.textType, &row.content); err != nil {
				rows.Close()
				return total, err
			}
			batch = append(batch, row)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return total, err
		}
		rows.Close()
		if len(batch) == 0 {
			break
		}

		tx := dst.DB.Begin()
		for _, row := range batch {
			paragraphs, err := decodeStoredContent(row.content)
			if err != nil {
				tx.Rollback()
				return total, fmt.Errorf("inhalt für id %d: %w", row.id, err)
			}
			if fuzzer != nil {
				for i, paragraph := range paragraphs {
					paragraphs[i] = fuzzer.Fuzz(paragraph)
				}
			}
			payload, err := json.Marshal(paragraphs)
			if err != nil {
				tx.Rollback()
				return total, err
			}
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			if _, err := w.Write(payload); err != nil {
				tx.Rollback()
				return total, err
			}
			if err := w.Close(); err != nil {
				tx.Rollback()
				return total, err
			}
			err = tx.Exec(`
				INSERT OR IGNORE INTO best_content
					(id, text_ref_id, text_content_id1, text_content_id2, text_type, content)
				VALUES (?, ?, ?, ?, ?, ?)
			`, row.id, row.textRefID, row.tcid1, row.tcid2, row.textType, buf.Bytes()).Error
			if err != nil {
				tx.Rollback()
				return total, fmt.Errorf("schreiben von id %d: %w", row.id, err)
			}
		}
		if err := tx.Commit().Error; err != nil {
			return total, err
		}
		total += int64(len(batch))
		lastID = batch[len(batch)-1].id
	}

	if err := dst.EndBulk(); err != nil {
		return total, err
	}
	logger.Info("best_content kopiert", zap.Int64("rows", total),
		zap.Bool("fuzzed", fuzzer != nil))
	return total, nil
}
