package services

import (
	"fmt"

	"go.uber.org/zap"

	"lit-lite/models"
	"lit-lite/store"
)

// defaultChunkSize begrenzt die Länge der IN-Listen bei Batch-Lookups.
const defaultChunkSize = 100000

// LookupService beantwortet alle Lese-Abfragen gegen die finale Datenbank.
// IDs ohne Treffer fehlen im Ergebnis, sie sind nie ein Fehler.
type LookupService struct {
	Store     *store.Store
	Logger    *zap.Logger
	ChunkSize int
}

// NewLookupService erstellt einen Lookup-Service über der finalen Datenbank.
func NewLookupService(st *store.Store, logger *zap.Logger) *LookupService {
	return &LookupService{
		Store:     st,
		Logger:    logger.With(zap.String("service", "lookup")),
		ChunkSize: defaultChunkSize,
	}
}

func (l *LookupService) chunks(ids []int64) [][]int64 {
	size := l.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	return store.ChunkInt64s(ids, size)
}

// contentRowsForQuery führt eine Query mit (text_ref_id, text_type, content)
// Ergebnisspalten aus und dekodiert die Inhalte.
func (l *LookupService) contentRowsForQuery(query string, args ...any) ([]ContentRow, error) {
	rows, err := l.Store.DB.Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ContentRow
	for rows.Next() {
		var (
			textRefID int64
			textType  string
			content   any
		)
		if err := rows.Scan(&textRefID, &textType, &content); err != nil {
			return nil, err
		}
		paragraphs, err := decodeStoredContent(content)
		if err != nil {
			return nil, fmt.Errorf("inhalt für text_ref_id %d: %w", textRefID, err)
		}
		result = append(result, ContentRow{
			TextRefID:  textRefID,
			TextType:   textType,
			Paragraphs: paragraphs,
		})
	}
	return result, rows.Err()
}

// ParagraphsForTextRefIDs liefert die unverarbeiteten Absatzlisten der besten
// Inhalte zu den gegebenen text_ref_ids.
func (l *LookupService) ParagraphsForTextRefIDs(textRefIDs []int64) (*TextContent, error) {
	var all []ContentRow
	for _, chunk := range l.chunks(textRefIDs) {
		rows, err := l.contentRowsForQuery(`
			SELECT text_ref_id, text_type, content
			FROM best_content
			WHERE text_ref_id IN ?
		`, chunk)
		if err != nil {
			return nil, fmt.Errorf("lesen aus best_content: %w", err)
		}
		all = append(all, rows...)
	}
	return NewTextContent(all), nil
}

// PlaintextsForTextRefIDs liefert verarbeitete Klartexte: Absätze werden
// verbunden, optional auf Tokens und text_types gefiltert.
func (l *LookupService) PlaintextsForTextRefIDs(
	textRefIDs []int64, contains []string, textTypes []string,
) (*Plaintexts, error) {
	content, err := l.ParagraphsForTextRefIDs(textRefIDs)
	if err != nil {
		return nil, err
	}
	return content.Process(contains, textTypes), nil
}

// TextRefIDsForPMIDs bildet PMIDs auf ihre text_ref_ids ab. PMIDs ohne
// Eintrag fehlen im Ergebnis.
func (l *LookupService) TextRefIDsForPMIDs(pmids []int64) (map[int64]int64, error) {
	result := make(map[int64]int64)
	for _, chunk := range l.chunks(pmids) {
		rows, err := l.Store.DB.Raw(`
			SELECT pmid, text_ref_id
			FROM pmid_text_refs
			WHERE pmid IN ?
		`, chunk).Rows()
		if err != nil {
			return nil, fmt.Errorf("lesen aus pmid_text_refs: %w", err)
		}
		for rows.Next() {
			var pmid, textRefID int64
			if err := rows.Scan(&pmid, &textRefID); err != nil {
				rows.Close()
				return nil, err
			}
			result[pmid] = textRefID
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

// PMIDsForTextRefIDs bildet text_ref_ids auf ihre PMIDs ab. Einträge ohne
// PMID fehlen im Ergebnis.
func (l *LookupService) PMIDsForTextRefIDs(textRefIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64)
	for _, chunk := range l.chunks(textRefIDs) {
		rows, err := l.Store.DB.Raw(`
			SELECT text_ref_id, pmid
			FROM pmid_text_refs
			WHERE text_ref_id IN ? AND pmid IS NOT NULL
		`, chunk).Rows()
		if err != nil {
			return nil, fmt.Errorf("lesen aus pmid_text_refs: %w", err)
		}
		for rows.Next() {
			var textRefID, pmid int64
			if err := rows.Scan(&textRefID, &pmid); err != nil {
				rows.Close()
				return nil, err
			}
			result[textRefID] = pmid
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

// TextRefIDsForAgentText liefert alle Dokumente, in denen der Agent-Text
// vorkommt.
func (l *LookupService) TextRefIDsForAgentText(agentText string) ([]int64, error) {
	var ids []int64
	err := l.Store.DB.Raw(`
		SELECT text_ref_id FROM agent_texts WHERE agent_text = ?
	`, agentText).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("lesen aus agent_texts: %w", err)
	}
	return ids, nil
}

// EntrezPMIDs liefert die PMIDs zu einer Entrez-Gen-ID.
func (l *LookupService) EntrezPMIDs(entrezID int64) ([]int64, error) {
	var pmids []int64
	err := l.Store.DB.Raw(`
		SELECT pmid FROM entrez_pmids WHERE entrez_id = ?
	`, entrezID).Scan(&pmids).Error
	if err != nil {
		return nil, fmt.Errorf("lesen aus entrez_pmids: %w", err)
	}
	return pmids, nil
}

// EntrezPMIDsForHGNC liefert die PMIDs zu einer HGNC-ID.
func (l *LookupService) EntrezPMIDsForHGNC(hgncID int64) ([]int64, error) {
	var pmids []int64
	err := l.Store.DB.Raw(`
		SELECT pmid FROM entrez_pmids WHERE hgnc_id = ?
	`, hgncID).Scan(&pmids).Error
	if err != nil {
		return nil, fmt.Errorf("lesen aus entrez_pmids: %w", err)
	}
	return pmids, nil
}

// EntrezPMIDsForUniprot liefert die PMIDs zu einer UniProt-ID.
func (l *LookupService) EntrezPMIDsForUniprot(uniprotID string) ([]int64, error) {
	var pmids []int64
	err := l.Store.DB.Raw(`
		SELECT pmid FROM entrez_pmids WHERE uniprot_id = ?
	`, uniprotID).Scan(&pmids).Error
	if err != nil {
		return nil, fmt.Errorf("lesen aus entrez_pmids: %w", err)
	}
	return pmids, nil
}

// TaxonIDForUniprot liefert die Taxon-ID der Spezies zu einer UniProt-ID.
// Der zweite Rückgabewert ist false, wenn die ID unbekannt ist.
func (l *LookupService) TaxonIDForUniprot(uniprotID string) (int64, bool, error) {
	var taxonIDs []int64
	err := l.Store.DB.Raw(`
		SELECT taxon_id FROM entrez_pmids WHERE uniprot_id = ? LIMIT 1
	`, uniprotID).Scan(&taxonIDs).Error
	if err != nil {
		return 0, false, fmt.Errorf("lesen aus entrez_pmids: %w", err)
	}
	if len(taxonIDs) == 0 {
		return 0, false, nil
	}
	return taxonIDs[0], true, nil
}

// PMIDsForMeshTerm liefert die mit einem MeSH-Term annotierten PMIDs.
// Bei majorTopic zählen nur Annotationen, die als Hauptthema markiert sind.
// Eine ID mit nicht unterstütztem Präfix ergibt ein leeres Ergebnis.
func (l *LookupService) PMIDsForMeshTerm(meshID string, majorTopic bool) ([]int64, error) {
	meshNum, isConcept, ok := models.MeshIDToNum(meshID)
	if !ok {
		return nil, nil
	}
	query := `
		SELECT pmid_num FROM mesh_pmids
		WHERE mesh_num = ? AND is_concept = ?`
	if majorTopic {
		query += ` AND major_topic = 1`
	}
	var pmids []int64
	if err := l.Store.DB.Raw(query, meshNum, isConcept).Scan(&pmids).Error; err != nil {
		return nil, fmt.Errorf("lesen aus mesh_pmids: %w", err)
	}
	return pmids, nil
}

// MeshTermsForGrounding liefert die MeSH-IDs, auf die ein Grounding
// (Namespace und Identifier) verweist.
func (l *LookupService) MeshTermsForGrounding(namespace, identifier string) ([]string, error) {
	curie := namespace + ":" + identifier
	rows, err := l.Store.DB.Raw(`
		SELECT mesh_num, is_concept FROM mesh_xrefs WHERE curie = ?
	`, curie).Rows()
	if err != nil {
		return nil, fmt.Errorf("lesen aus mesh_xrefs: %w", err)
	}
	defer rows.Close()

	var meshIDs []string
	for rows.Next() {
		var meshNum int64
		var isConcept int
		if err := rows.Scan(&meshNum, &isConcept); err != nil {
			return nil, err
		}
		meshIDs = append(meshIDs, models.MeshNumToID(meshNum, isConcept))
	}
	return meshIDs, rows.Err()
}

// TextSample zieht eine Zufallsstichprobe unverarbeiteter Inhalte der
// gegebenen text_types. Eine leere Typenliste schließt alle drei Typen ein.
func (l *LookupService) TextSample(n int, textTypes []string) (*TextContent, error) {
	if len(textTypes) == 0 {
		textTypes = []string{
			models.TextTypeFulltext, models.TextTypeAbstract, models.TextTypeTitle,
		}
	}
	rows, err := l.contentRowsForQuery(`
		SELECT text_ref_id, text_type, content
		FROM best_content
		WHERE id IN (
			SELECT id FROM best_content
			WHERE text_type IN ?
			ORDER BY RANDOM()
			LIMIT ?
		)
	`, textTypes, n)
	if err != nil {
		return nil, fmt.Errorf("stichprobe aus best_content: %w", err)
	}
	return NewTextContent(rows), nil
}
