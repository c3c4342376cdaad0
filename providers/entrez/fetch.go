// Package entrez baut die Gen→PMID-Tabelle aus der NCBI-Datei gene2pubmed
// und reichert sie über das HGNC-Complete-Set mit HGNC- und UniProt-IDs an.
package entrez

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/models"
	"lit-lite/providers"
	"lit-lite/store"
)

// Fetcher ist eine Struktur, die die Logik zum Laden der Gen-Daten kapselt.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Entrez-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger.With(zap.String("provider", "entrez"))}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "entrez"
}

// geneXref sind die externen IDs eines Entrez-Gens aus dem HGNC-Set.
type geneXref struct {
	hgncID    int64
	uniprotID string
}

// loadHGNCXrefs lädt das HGNC-Complete-Set und baut die Zuordnung
// entrez_id→(hgnc_id, uniprot_id). Zeilen ohne Entrez-ID werden übersprungen.
func (f *Fetcher) loadHGNCXrefs() (map[int64]geneXref, error) {
	resp, err := providers.HTTPClient.Get(f.Config.HGNCSetURL)
	if err != nil {
		return nil, fmt.Errorf("hgnc-Set abrufen: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("hgnc-Set: unerwarteter Status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("hgnc-Header lesen: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"hgnc_id", "entrez_id", "uniprot_ids"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("hgnc-Set ohne Spalte %s", required)
		}
	}

	xrefs := make(map[int64]geneXref)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("hgnc-Zeile lesen: %w", err)
		}
		field := func(name string) string {
			idx := cols[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		entrezID, err := strconv.ParseInt(field("entrez_id"), 10, 64)
		if err != nil {
			continue
		}
		var xref geneXref
		if raw, ok := strings.CutPrefix(field("hgnc_id"), "HGNC:"); ok {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				xref.hgncID = id
			}
		}
		// Bei mehreren UniProt-IDs zählt die erste.
		if uniprots := strings.FieldsFunc(field("uniprot_ids"), func(r rune) bool {
			return r == '|' || r == ' '
		}); len(uniprots) > 0 {
			xref.uniprotID = uniprots[0]
		}
		xrefs[entrezID] = xref
	}
	f.Logger.Info("HGNC-Zuordnung geladen", zap.Int("genes", len(xrefs)))
	return xrefs, nil
}

// LoadEntrezPMIDs lädt gene2pubmed, reichert jede Zeile über das HGNC-Set an
// und schreibt das Ergebnis in den Staging-Store.
func (f *Fetcher) LoadEntrezPMIDs(dst *store.Store, workDir string) (int64, error) {
	if err := dst.EnsureTable("entrez_pmids"); err != nil {
		return 0, err
	}
	xrefs, err := f.loadHGNCXrefs()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return 0, err
	}
	path := filepath.Join(workDir, "gene2pubmed.gz")
	if err := providers.DownloadFile(f.Config.EntrezPMIDsURL, path); err != nil {
		return 0, err
	}
	defer os.Remove(path)

	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return 0, fmt.Errorf("gzip von gene2pubmed: %w", err)
	}
	defer gz.Close()

	if err := dst.BeginBulk(); err != nil {
		return 0, err
	}
	var total int64
	batch := make([]models.EntrezPmid, 0, 5000)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.DB.CreateInBatches(batch, 2000).Error; err != nil {
			return fmt.Errorf("schreiben von entrez_pmids: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		taxonID, err1 := strconv.ParseInt(fields[0], 10, 64)
		entrezID, err2 := strconv.ParseInt(fields[1], 10, 64)
		pmid, err3 := strconv.ParseInt(fields[2], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		row := models.EntrezPmid{
			TaxonID:  taxonID,
			EntrezID: entrezID,
			PMID:     pmid,
		}
		if xref, ok := xrefs[entrezID]; ok {
			row.UniprotID = xref.uniprotID
			if xref.hgncID != 0 {
				hgncID := xref.hgncID
				row.HGNCID = &hgncID
			}
		}
		batch = append(batch, row)
		if len(batch) >= cap(batch) {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("lesen von gene2pubmed: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	if err := dst.EndBulk(); err != nil {
		return total, err
	}
	f.Logger.Info("Entrez-PMIDs geladen", zap.Int64("rows", total))
	return total, nil
}
