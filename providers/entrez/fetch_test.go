package entrez

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/store"
)

const hgncTSV = "hgnc_id\tsymbol\tentrez_id\tuniprot_ids\n" +
	"HGNC:6091\tINSR\t3643\tP06213\n" +
	"HGNC:3236\tEGFR\t1956\tP00533|Q504U8\n" +
	"HGNC:9999\tNOGENE\t\t\n"

const gene2pubmed = "#tax_id\tGeneID\tPubMed_ID\n" +
	"9606\t3643\t100\n" +
	"9606\t3643\t101\n" +
	"9606\t1956\t102\n" +
	"10090\t16337\t200\n" +
	"bad\tline\there\n"

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

func TestLoadEntrezPMIDs(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write([]byte(gene2pubmed)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hgnc":
			w.Write([]byte(hgncTSV))
		case "/gene2pubmed.gz":
			w.Write(gz.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := &config.Config{
		HGNCSetURL:     server.URL + "/hgnc",
		EntrezPMIDsURL: server.URL + "/gene2pubmed.gz",
	}
	st := newTestStore(t)
	total, err := NewFetcher(cfg, zap.NewNop()).LoadEntrezPMIDs(st, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Fatalf("loaded %d rows, want 4", total)
	}

	type row struct {
		TaxonID   int64  `gorm:"column:taxon_id"`
		UniprotID string `gorm:"column:uniprot_id"`
		HGNCID    *int64 `gorm:"column:hgnc_id"`
	}
	var insr row
	err = st.DB.Raw(`
		SELECT taxon_id, uniprot_id, hgnc_id FROM entrez_pmids
		WHERE entrez_id = 3643 AND pmid = 100
	`).Scan(&insr).Error
	if err != nil {
		t.Fatal(err)
	}
	if insr.TaxonID != 9606 || insr.UniprotID != "P06213" {
		t.Errorf("INSR row = %+v, want taxon 9606 uniprot P06213", insr)
	}
	if insr.HGNCID == nil || *insr.HGNCID != 6091 {
		t.Errorf("INSR hgnc_id = %v, want 6091", insr.HGNCID)
	}

	// Erste UniProt-ID gewinnt bei mehreren.
	var egfr row
	err = st.DB.Raw(`
		SELECT taxon_id, uniprot_id, hgnc_id FROM entrez_pmids WHERE entrez_id = 1956
	`).Scan(&egfr).Error
	if err != nil {
		t.Fatal(err)
	}
	if egfr.UniprotID != "P00533" {
		t.Errorf("EGFR uniprot_id = %q, want P00533", egfr.UniprotID)
	}

	// Gene ohne HGNC-Eintrag bleiben ohne Xrefs.
	var mouse row
	err = st.DB.Raw(`
		SELECT taxon_id, uniprot_id, hgnc_id FROM entrez_pmids WHERE entrez_id = 16337
	`).Scan(&mouse).Error
	if err != nil {
		t.Fatal(err)
	}
	if mouse.UniprotID != "" || mouse.HGNCID != nil {
		t.Errorf("mouse row = %+v, want empty xrefs", mouse)
	}
}
