// Package indradb extrahiert die Rohdaten der Build-Pipeline aus der
// Upstream-Postgres-Datenbank: Kandidaten-Volltexte, die text_ref→PMID-Karte
// und die Vier-Tabellen-Kette für Agent-Texte.
package indradb

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lit-lite/config"
	"lit-lite/models"
	"lit-lite/store"
)

// insertBatchSize begrenzt die Batches beim Schreiben in die Staging-Stores.
const insertBatchSize = 2000

// Extractor liest aus der Upstream-Datenbank und schreibt in lokale
// Staging-Stores.
type Extractor struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewExtractor verbindet sich mit der Upstream-Postgres-Datenbank.
func NewExtractor(cfg *config.Config, log *zap.Logger) (*Extractor, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("verbindung zur Upstream-Datenbank: %w", err)
	}
	return &Extractor{DB: db, Logger: log.With(zap.String("provider", "indradb"))}, nil
}

// decompressContent packt zlib-komprimierte Upstream-Inhalte aus. Unkomprimierte
// Inhalte werden unverändert zurückgegeben.
func decompressContent(raw []byte) (string, error) {
	if len(raw) < 2 || raw[0] != 0x78 {
		return string(raw), nil
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		// Kein gültiger zlib-Strom, also Klartext, der zufällig mit 0x78 beginnt.
		return string(raw), nil
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("dekomprimieren des Inhalts: %w", err)
	}
	return string(out), nil
}

// ExtractTextContent überträgt alle Kandidaten-Inhalte in den Staging-Store.
// Quellen des xdd-Systems sind ausgeschlossen. Gibt die Zahl der übertragenen
// Zeilen zurück.
func (e *Extractor) ExtractTextContent(dst *store.Store) (int64, error) {
	if err := dst.EnsureTable("text_content"); err != nil {
		return 0, err
	}
	rows, err := e.DB.Raw(`
		SELECT id, text_ref_id, text_type, source, content
		FROM text_content
		WHERE source NOT LIKE 'xdd%' AND content IS NOT NULL
		ORDER BY id
	`).Rows()
	if err != nil {
		return 0, fmt.Errorf("lesen von text_content: %w", err)
	}
	defer rows.Close()

	var total int64
	batch := make([]models.CandidateText, 0, insertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.DB.CreateInBatches(batch, insertBatchSize).Error; err != nil {
			return fmt.Errorf("schreiben in Staging-Store: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}
	for rows.Next() {
		var (
			id, textRefID    int64
			textType, source string
			rawContent       []byte
		)
		if err := rows.Scan(&id, &textRefID, &textType, &source, &rawContent); err != nil {
			return total, err
		}
		content, err := decompressContent(rawContent)
		if err != nil {
			e.Logger.Warn("Inhalt nicht lesbar, Zeile übersprungen",
				zap.Int64("text_content_id", id), zap.Error(err))
			continue
		}
		batch = append(batch, models.CandidateText{
			ID:        id,
			TextRefID: textRefID,
			TextType:  textType,
			Source:    source,
			Content:   content,
		})
		if len(batch) >= insertBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	e.Logger.Info("Kandidaten-Inhalte übertragen", zap.Int64("rows", total))
	return total, nil
}

// ExtractPMIDTextRefs überträgt die text_ref→PMID-Zuordnung.
func (e *Extractor) ExtractPMIDTextRefs(dst *store.Store) (int64, error) {
	if err := dst.EnsureTable("pmid_text_refs"); err != nil {
		return 0, err
	}
	rows, err := e.DB.Raw(`
		SELECT DISTINCT id, pmid_num FROM text_ref ORDER BY id
	`).Rows()
	if err != nil {
		return 0, fmt.Errorf("lesen von text_ref: %w", err)
	}
	defer rows.Close()

	var total int64
	batch := make([]models.PmidTextRef, 0, insertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.DB.CreateInBatches(batch, insertBatchSize).Error; err != nil {
			return fmt.Errorf("schreiben in Staging-Store: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}
	for rows.Next() {
		var row models.PmidTextRef
		if err := rows.Scan(&row.TextRefID, &row.PMID); err != nil {
			return total, err
		}
		batch = append(batch, row)
		if len(batch) >= insertBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	e.Logger.Info("PMID-Zuordnung übertragen", zap.Int64("rows", total))
	return total, nil
}

// agentStagingQueries bildet die Staging-Tabellen der Agent-Text-Kette auf
// ihre Upstream-Queries ab.
var agentStagingQueries = []struct {
	table   string
	query   string
	indexed bool
}{
	{"agent_stmts", `
		SELECT id, db_id, stmt_id FROM raw_agents
		WHERE db_name = 'TEXT' AND stmt_id IS NOT NULL AND db_id IS NOT NULL`, true},
	{"stmt_readings", `
		SELECT id, reading_id FROM raw_statements
		WHERE reading_id IS NOT NULL`, true},
	{"reading_content", `
		SELECT id, text_content_id FROM reading`, true},
	{"content_text_refs", `
		SELECT id, text_ref_id FROM text_content`, false},
}

// ExtractAgentTexts baut die agent_texts-Tabelle auf. Die vier Upstream-Ketten
// werden erst lokal gestaged und dann per Join im Staging-Store aufgelöst,
// damit der teure Vier-Wege-Join nicht auf der Upstream-Datenbank läuft.
func (e *Extractor) ExtractAgentTexts(dst *store.Store) (int64, error) {
	if err := dst.EnsureTables("agent_stmts", "stmt_readings", "reading_content",
		"content_text_refs", "agent_texts"); err != nil {
		return 0, err
	}
	if err := dst.BeginBulk(); err != nil {
		return 0, err
	}
	for _, staging := range agentStagingQueries {
		if err := e.stageIDPairs(dst, staging.table, staging.query); err != nil {
			return 0, err
		}
		if staging.indexed {
			if err := dst.AddIndexes(staging.table); err != nil {
				return 0, err
			}
		}
	}
	result := dst.DB.Exec(`
		INSERT INTO agent_texts (agent_text, text_ref_id)
		SELECT DISTINCT a.agent_text, c.text_ref_id
		FROM agent_stmts a
		JOIN stmt_readings s ON a.stmt_id = s.stmt_id
		JOIN reading_content r ON s.reading_id = r.reading_id
		JOIN content_text_refs c ON r.text_content_id = c.text_content_id
	`)
	if result.Error != nil {
		return 0, fmt.Errorf("auflösen der Agent-Text-Kette: %w", result.Error)
	}
	if err := dst.EndBulk(); err != nil {
		return result.RowsAffected, err
	}
	e.Logger.Info("Agent-Texte aufgelöst", zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// stageIDPairs überträgt eine Upstream-Query zeilenweise in die gleichnamige
// Staging-Tabelle. Die Spaltenzahl (2 oder 3) ergibt sich aus der Tabelle.
func (e *Extractor) stageIDPairs(dst *store.Store, table, query string) error {
	rows, err := e.DB.Raw(query).Rows()
	if err != nil {
		return fmt.Errorf("lesen für %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	placeholders := "(?, ?)"
	if len(cols) == 3 {
		placeholders = "(?, ?, ?)"
	}
	insert := fmt.Sprintf("INSERT OR IGNORE INTO %s VALUES %s", table, placeholders)

	var total int64
	tx := dst.DB.Begin()
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Exec(insert, values...).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("schreiben in %s: %w", table, err)
		}
		total++
	}
	if err := rows.Err(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	e.Logger.Info("Staging-Tabelle befüllt",
		zap.String("table", table), zap.Int64("rows", total))
	return nil
}
