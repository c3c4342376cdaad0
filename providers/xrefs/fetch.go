// Package xrefs lädt die Ontologie-Querverweise (MeSH-ID → CURIE) aus einer
// gzip-komprimierten TSV-Datei in den Annotations-Staging-Store.
package xrefs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/models"
	"lit-lite/providers"
	"lit-lite/store"
)

// Fetcher ist eine Struktur, die die Logik zum Laden der Querverweise kapselt.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Xrefs-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger.With(zap.String("provider", "xrefs"))}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "xrefs"
}

// LoadMeshXrefs lädt die Querverweis-Datei und schreibt die Zuordnungen in
// den Staging-Store. Zeilen mit unbekannten MeSH-IDs werden übersprungen,
// ebenso die Kopfzeile.
func (f *Fetcher) LoadMeshXrefs(dst *store.Store, workDir string) (int64, error) {
	if err := dst.EnsureTable("mesh_xrefs"); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return 0, err
	}
	path := filepath.Join(workDir, "mesh_xrefs.tsv.gz")
	if err := providers.DownloadFile(f.Config.MeshXrefsURL, path); err != nil {
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
		return 0, fmt.Errorf("gzip der Querverweis-Datei: %w", err)
	}
	defer gz.Close()

	var total int64
	batch := make([]models.MeshXref, 0, 5000)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.DB.CreateInBatches(batch, 2000).Error; err != nil {
			return fmt.Errorf("schreiben von mesh_xrefs: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		meshNum, isConcept, ok := models.MeshIDToNum(strings.TrimSpace(fields[0]))
		if !ok {
			continue
		}
		curie := strings.TrimSpace(fields[1])
		if curie == "" {
			continue
		}
		batch = append(batch, models.MeshXref{
			MeshNum:   meshNum,
			IsConcept: isConcept,
			Curie:     curie,
		})
		if len(batch) >= cap(batch) {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("lesen der Querverweis-Datei: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	f.Logger.Info("MeSH-Querverweise geladen", zap.Int64("rows", total))
	return total, nil
}
