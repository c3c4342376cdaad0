package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lit-lite/models"
	"lit-lite/store"
)

// loadBatchSize begrenzt die Lese-Batches beim Befüllen von best_content.
const loadBatchSize = 10000

// BestContentSelector reduziert die Kandidaten-Inhalte des Text-Staging-Stores
// auf genau eine beste Zeile pro Dokument.
type BestContentSelector struct {
	Store  *store.Store
	Logger *zap.Logger
}

// NewBestContentSelector erstellt einen Selector über dem Staging-Store.
func NewBestContentSelector(st *store.Store, logger *zap.Logger) *BestContentSelector {
	return &BestContentSelector{Store: st, Logger: logger.With(zap.String("service", "bestcontent"))}
}

// sourceRankCase baut den CASE-Ausdruck, der Quellen auf ihren Prioritätsrang
// abbildet. Unbekannte Quellen bekommen den schlechtesten Rang.
func sourceRankCase(priorities []string) string {
	var sb strings.Builder
	sb.WriteString("CASE source")
	for rank, source := range priorities {
		fmt.Fprintf(&sb, " WHEN '%s' THEN %d", source, rank)
	}
	fmt.Fprintf(&sb, " ELSE %d END", len(priorities))
	return sb.String()
}

// DeleteShadowedContent entfernt Abstracts und Titel von Dokumenten, für die
// ein Volltext vorliegt.
func (s *BestContentSelector) DeleteShadowedContent() error {
	result := s.Store.DB.Exec(`
		DELETE FROM text_content
		WHERE text_ref_id IN (
			SELECT text_ref_id FROM text_content WHERE text_type = 'fulltext'
		) AND (text_type = 'abstract' OR text_type = 'title')
	`)
	if result.Error != nil {
		return fmt.Errorf("entfernen überschatteter Inhalte: %w", result.Error)
	}
	s.Logger.Info("Überschattete Inhalte entfernt", zap.Int64("rows", result.RowsAffected))
	return nil
}

// deleteDuplicates behält pro Dokument den Kandidaten mit dem besten
// Quellenrang und löscht die übrigen Zeilen des Typs.
func (s *BestContentSelector) deleteDuplicates(textType string, priorities []string) error {
	query := fmt.Sprintf(`
		DELETE FROM text_content
		WHERE
			text_type = '%s' AND
			id NOT IN (
			SELECT id FROM (
				SELECT id, MIN(%s)
				FROM text_content
				WHERE text_type = '%s'
				GROUP BY text_ref_id)
		)
	`, textType, sourceRankCase(priorities), textType)
	result := s.Store.DB.Exec(query)
	if result.Error != nil {
		return fmt.Errorf("entfernen doppelter %s-Zeilen: %w", textType, result.Error)
	}
	s.Logger.Info("Duplikate entfernt",
		zap.String("text_type", textType), zap.Int64("rows", result.RowsAffected))
	return nil
}

// DeleteDuplicateFulltexts löst Volltext-Duplikate über den Quellenrang auf.
func (s *BestContentSelector) DeleteDuplicateFulltexts() error {
	return s.deleteDuplicates(models.TextTypeFulltext, models.FulltextSourcePriority)
}

// DeleteDuplicateAbstracts löst Abstract-Duplikate über den Quellenrang auf.
func (s *BestContentSelector) DeleteDuplicateAbstracts() error {
	return s.deleteDuplicates(models.TextTypeAbstract, models.AbstractSourcePriority)
}

// CombineAbstractsWithTitles legt die Join-Tabelle combined_content an, die
// Abstract und Titel desselben Dokuments zusammenführt.
func (s *BestContentSelector) CombineAbstractsWithTitles() error {
	err := s.Store.DB.Exec(`
		CREATE TABLE IF NOT EXISTS combined_content AS
		SELECT
			tc1.id AS tcid1, tc2.id AS tcid2,
			tc1.text_ref_id AS text_ref_id, tc1.text_type AS text_type,
			tc1.source AS source, tc2.content AS title, tc1.content AS abstract
		FROM
			text_content tc1
		INNER JOIN
			text_content tc2
		ON
			tc1.text_type = 'abstract' AND
			tc2.text_type = 'title' AND
			tc1.text_ref_id = tc2.text_ref_id
	`).Error
	if err != nil {
		return fmt.Errorf("kombinieren von Abstracts und Titeln: %w", err)
	}
	var count int64
	if err := s.Store.DB.Raw("SELECT COUNT(*) FROM combined_content").Scan(&count).Error; err != nil {
		return err
	}
	s.Logger.Info("Abstracts mit Titeln kombiniert", zap.Int64("rows", count))
	return nil
}

// DeleteCombinedRows entfernt die Abstracts und Titel, die in
// combined_content aufgegangen sind. Abstracts ohne Titel bleiben stehen und
// gewinnen später als Einzelinhalt.
func (s *BestContentSelector) DeleteCombinedRows() error {
	result := s.Store.DB.Exec(`
		DELETE FROM text_content
		WHERE text_ref_id IN (
			SELECT text_ref_id FROM combined_content
		) AND (text_type = 'abstract' OR text_type = 'title')
	`)
	if result.Error != nil {
		return fmt.Errorf("entfernen kombinierter Zeilen: %w", result.Error)
	}
	s.Logger.Info("Kombinierte Zeilen entfernt", zap.Int64("rows", result.RowsAffected))
	return s.Store.Vacuum()
}

// combinedRow ist eine Zeile der Join-Tabelle.
type combinedRow struct {
	TCID1     int64  `gorm:"column:tcid1"`
	TCID2     int64  `gorm:"column:tcid2"`
	TextRefID int64  `gorm:"column:text_ref_id"`
	TextType  string `gorm:"column:text_type"`
	Title     string `gorm:"column:title"`
	Abstract  string `gorm:"column:abstract"`
}

// stagingRow ist eine verbliebene Kandidatenzeile.
type stagingRow struct {
	ID        int64  `gorm:"column:id"`
	TextRefID int64  `gorm:"column:text_ref_id"`
	TextType  string `gorm:"column:text_type"`
	Content   string `gorm:"column:content"`
}

const bestContentInsert = `
	INSERT OR IGNORE INTO best_content
		(text_ref_id, text_content_id1, text_content_id2, text_type, content)
	VALUES (?, ?, ?, ?, ?)`

// LoadBestContent befüllt best_content: zuerst die kombinierten
// Abstract+Titel-Zeilen, danach die verbliebenen Kandidaten in aufsteigender
// id-Reihenfolge. Die UNIQUE-Constraints lassen pro Dokument nur den ersten
// Treffer durch.
func (s *BestContentSelector) LoadBestContent() error {
	if err := s.Store.EnsureTable("best_content"); err != nil {
		return err
	}
	if err := s.Store.BeginBulk(); err != nil {
		return err
	}
	if err := s.loadCombined(); err != nil {
		return err
	}
	if err := s.loadRemaining(); err != nil {
		return err
	}
	return s.Store.EndBulk()
}

func (s *BestContentSelector) loadCombined() error {
	var total int64
	lastID := int64(-1)
	for {
		var rows []combinedRow
		err := s.Store.DB.Raw(`
			SELECT tcid1, tcid2, text_ref_id, text_type, title, abstract
			FROM combined_content
			WHERE tcid1 > ?
			ORDER BY tcid1
			LIMIT ?
		`, lastID, loadBatchSize).Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("lesen aus combined_content: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		tx := s.Store.DB.Begin()
		for _, row := range rows {
			content, err := encodeStoredContent([]string{row.Title, row.Abstract})
			if err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Exec(bestContentInsert,
				row.TextRefID, row.TCID1, row.TCID2, row.TextType, content,
			).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("laden kombinierter Inhalte: %w", err)
			}
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
		total += int64(len(rows))
		lastID = rows[len(rows)-1].TCID1
	}
	s.Logger.Info("Kombinierte Inhalte geladen", zap.Int64("rows", total))
	return nil
}

func (s *BestContentSelector) loadRemaining() error {
	var total int64
	lastID := int64(-1)
	for {
		var rows []stagingRow
		err := s.Store.DB.Raw(`
			SELECT id, text_ref_id, text_type, content
			FROM text_content
			WHERE id > ?
			ORDER BY id
			LIMIT ?
		`, lastID, loadBatchSize).Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("lesen aus text_content: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		tx := s.Store.DB.Begin()
		for _, row := range rows {
			content, err := encodeStoredContent(SplitParagraphs(row.Content))
			if err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Exec(bestContentInsert,
				row.TextRefID, row.ID, nil, row.TextType, content,
			).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("laden verbliebener Inhalte: %w", err)
			}
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
		total += int64(len(rows))
		lastID = rows[len(rows)-1].ID
	}
	s.Logger.Info("Verbliebene Inhalte geladen", zap.Int64("rows", total))
	return nil
}

// DropStaging entfernt die Staging-Tabellen nach dem Laden und kompaktiert
// die Datei.
func (s *BestContentSelector) DropStaging() error {
	for _, table := range []string{"combined_content", "text_content"} {
		if err := s.Store.DB.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
			return fmt.Errorf("entfernen der Staging-Tabelle %s: %w", table, err)
		}
	}
	return s.Store.Vacuum()
}

// Run führt die vollständige Auswahl aus: Indizes auf die Kandidaten,
// Reduktion, Kombination, Laden, Aufräumen.
func (s *BestContentSelector) Run() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"staging indexes", func() error { return s.Store.AddIndexes("text_content") }},
		{"delete shadowed content", s.DeleteShadowedContent},
		{"delete duplicate fulltexts", s.DeleteDuplicateFulltexts},
		{"delete duplicate abstracts", s.DeleteDuplicateAbstracts},
		{"combine abstracts with titles", s.CombineAbstractsWithTitles},
		{"delete combined rows", s.DeleteCombinedRows},
		{"load best content", s.LoadBestContent},
		{"drop staging tables", s.DropStaging},
	}
	for _, step := range steps {
		s.Logger.Info("Starte Schritt", zap.String("step", step.name))
		if err := step.fn(); err != nil {
			return fmt.Errorf("schritt %q: %w", step.name, err)
		}
	}
	return nil
}
