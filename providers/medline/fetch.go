// Package medline lädt die MEDLINE/PubMed-Baseline-Dateien und extrahiert
// ihre MeSH-Annotationen in den Annotations-Staging-Store.
package medline

import (
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/models"
	"lit-lite/providers"
	"lit-lite/store"
)

var baselineFileRegex = regexp.MustCompile(`href="(pubmed\d+n\d+\.xml\.gz)"`)

// Fetcher ist eine Struktur, die die Logik zum Laden der Baseline kapselt.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des MEDLINE-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger.With(zap.String("provider", "medline"))}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "medline"
}

// ListBaselineFiles liest das Verzeichnis-Listing der Baseline und gibt die
// Dateinamen sortiert zurück.
func (f *Fetcher) ListBaselineFiles() ([]string, error) {
	resp, err := providers.HTTPClient.Get(f.Config.MedlineBaseURL)
	if err != nil {
		return nil, fmt.Errorf("baseline-Listing abrufen: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("baseline-Listing: unerwarteter Status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, match := range baselineFileRegex.FindAllStringSubmatch(string(body), -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	sort.Strings(names)
	f.Logger.Info("Baseline-Listing gelesen", zap.Int("files", len(names)))
	return names, nil
}

// FetchFile lädt eine Baseline-Datei samt MD5-Prüfsumme herunter und
// verifiziert sie. Gibt den lokalen Pfad zurück.
func (f *Fetcher) FetchFile(name, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)
	fileURL := strings.TrimRight(f.Config.MedlineBaseURL, "/") + "/" + name
	if err := providers.DownloadFile(fileURL, dest); err != nil {
		return "", err
	}

	expected, err := f.fetchChecksum(fileURL + ".md5")
	if err != nil {
		return "", err
	}
	actual, err := fileMD5(dest)
	if err != nil {
		return "", err
	}
	if actual != expected {
		os.Remove(dest)
		return "", fmt.Errorf("md5-Prüfung für %s fehlgeschlagen: %s statt %s", name, actual, expected)
	}
	return dest, nil
}

// fetchChecksum lädt eine .md5-Datei und extrahiert den Hex-Digest. Das
// Format ist "MD5(datei)= hex".
func (f *Fetcher) fetchChecksum(url string) (string, error) {
	resp, err := providers.HTTPClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("md5-Datei abrufen: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("md5-Datei: unerwarteter Status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(strings.TrimSpace(string(body)))
	if len(fields) == 0 {
		return "", fmt.Errorf("leere md5-Datei unter %s", url)
	}
	return fields[len(fields)-1], nil
}

func fileMD5(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ParseFile streamt eine gzip-komprimierte Baseline-Datei und ruft fn für
// jede extrahierte MeSH-Annotation auf. Zitationen ohne PMID oder mit
// unbekannten UIs werden übersprungen.
func (f *Fetcher) ParseFile(path string, fn func(models.MeshPmid) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("gzip von %s: %w", path, err)
	}
	defer gz.Close()

	decoder := xml.NewDecoder(gz)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("xml in %s: %w", path, err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "PubmedArticle" {
			continue
		}
		var article PubmedArticle
		if err := decoder.DecodeElement(&article, &start); err != nil {
			return fmt.Errorf("zitation in %s: %w", path, err)
		}
		for _, row := range citationMeshRows(&article.Citation) {
			if err := fn(row); err != nil {
				return err
			}
		}
	}
}

// citationMeshRows wandelt eine Zitation in ihre Annotations-Zeilen um.
// Deskriptoren gelten als Major Topic, wenn der Deskriptor selbst oder einer
// seiner Qualifier so markiert ist.
func citationMeshRows(citation *MedlineCitation) []models.MeshPmid {
	pmid, err := strconv.ParseInt(strings.TrimSpace(citation.PMID), 10, 64)
	if err != nil {
		return nil
	}
	var rows []models.MeshPmid
	appendRow := func(ui string, majorTopic int) {
		meshNum, isConcept, ok := models.MeshIDToNum(ui)
		if !ok {
			return
		}
		rows = append(rows, models.MeshPmid{
			MeshNum:    meshNum,
			IsConcept:  isConcept,
			MajorTopic: majorTopic,
			PMIDNum:    pmid,
		})
	}
	for _, heading := range citation.MeshHeadings {
		major := heading.Descriptor.MajorTopicYN == "Y"
		for _, qualifier := range heading.Qualifiers {
			if qualifier.MajorTopicYN == "Y" {
				major = true
			}
		}
		majorTopic := 0
		if major {
			majorTopic = 1
		}
		appendRow(heading.Descriptor.UI, majorTopic)
	}
	for _, chemical := range citation.Chemicals {
		appendRow(chemical.Substance.UI, 0)
	}
	for _, suppl := range citation.SupplMesh {
		appendRow(suppl.UI, 0)
	}
	return rows
}

// LoadMeshAnnotations lädt alle Baseline-Dateien, parst sie und schreibt die
// Annotationen in den Staging-Store. Heruntergeladene Dateien werden nach dem
// Parsen gelöscht, damit der Build-Rechner nicht vollläuft.
func (f *Fetcher) LoadMeshAnnotations(dst *store.Store, workDir string) (int64, error) {
	if err := dst.EnsureTable("mesh_pmids"); err != nil {
		return 0, err
	}
	names, err := f.ListBaselineFiles()
	if err != nil {
		return 0, err
	}
	if err := dst.BeginBulk(); err != nil {
		return 0, err
	}

	var total int64
	batch := make([]models.MeshPmid, 0, 5000)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dst.DB.CreateInBatches(batch, 2000).Error; err != nil {
			return fmt.Errorf("schreiben der Annotationen: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}
	for _, name := range names {
		log := f.Logger.With(zap.String("file", name))
		log.Info("Lade Baseline-Datei")
		path, err := f.FetchFile(name, workDir)
		if err != nil {
			return total, err
		}
		err = f.ParseFile(path, func(row models.MeshPmid) error {
			batch = append(batch, row)
			if len(batch) >= cap(batch) {
				return flush()
			}
			return nil
		})
		os.Remove(path)
		if err != nil {
			return total, err
		}
		if err := flush(); err != nil {
			return total, err
		}
		log.Info("Baseline-Datei verarbeitet", zap.Int64("rows_total", total))
	}
	if err := dst.EndBulk(); err != nil {
		return total, err
	}
	return total, nil
}
