package medline

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/models"
)

const citationXML = `
<PubmedArticle>
  <MedlineCitation>
    <PMID Version="1">12345</PMID>
    <MeshHeadingList>
      <MeshHeading>
        <DescriptorName UI="D018599" MajorTopicYN="N">Receptor, Insulin</DescriptorName>
        <QualifierName UI="Q000235" MajorTopicYN="Y">genetics</QualifierName>
      </MeshHeading>
      <MeshHeading>
        <DescriptorName UI="D008954" MajorTopicYN="N">Models, Biological</DescriptorName>
      </MeshHeading>
    </MeshHeadingList>
    <ChemicalList>
      <Chemical>
        <NameOfSubstance UI="C000123">some substance</NameOfSubstance>
      </Chemical>
    </ChemicalList>
  </MedlineCitation>
</PubmedArticle>`

func TestCitationMeshRows(t *testing.T) {
	var article PubmedArticle
	if err := xml.Unmarshal([]byte(citationXML), &article); err != nil {
		t.Fatal(err)
	}

	got := citationMeshRows(&article.Citation)
	want := []models.MeshPmid{
		{MeshNum: 18599, IsConcept: 0, MajorTopic: 1, PMIDNum: 12345},
		{MeshNum: 8954, IsConcept: 0, MajorTopic: 0, PMIDNum: 12345},
		{MeshNum: 123, IsConcept: 1, MajorTopic: 0, PMIDNum: 12345},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCitationMeshRowsSkipsBadRows(t *testing.T) {
	citation := MedlineCitation{
		PMID: "12345",
		MeshHeadings: []MeshHeading{
			{Descriptor: DescriptorName{UI: "Q000235"}},
		},
	}
	if rows := citationMeshRows(&citation); len(rows) != 0 {
		t.Errorf("got %v, want empty for unsupported UI", rows)
	}

	citation = MedlineCitation{
		PMID: "not-a-pmid",
		MeshHeadings: []MeshHeading{
			{Descriptor: DescriptorName{UI: "D018599"}},
		},
	}
	if rows := citationMeshRows(&citation); len(rows) != 0 {
		t.Errorf("got %v, want empty for missing pmid", rows)
	}
}

func TestListBaselineFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="pubmed26n0002.xml.gz">pubmed26n0002.xml.gz</a>
			<a href="pubmed26n0001.xml.gz">pubmed26n0001.xml.gz</a>
			<a href="pubmed26n0001.xml.gz.md5">pubmed26n0001.xml.gz.md5</a>
			<a href="pubmed26n0001.xml.gz">pubmed26n0001.xml.gz</a>
			<a href="README.txt">README.txt</a>
		</body></html>`)
	}))
	defer server.Close()

	fetcher := NewFetcher(&config.Config{MedlineBaseURL: server.URL}, zap.NewNop())
	names, err := fetcher.ListBaselineFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pubmed26n0001.xml.gz", "pubmed26n0002.xml.gz"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetchFileVerifiesChecksum(t *testing.T) {
	payload := gzipBytes(t, []byte("<PubmedArticleSet></PubmedArticleSet>"))
	digest := md5.Sum(payload)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".md5"):
			fmt.Fprintf(w, "MD5(pubmed26n0001.xml.gz)= %s\n", hex.EncodeToString(digest[:]))
		default:
			w.Write(payload)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(&config.Config{MedlineBaseURL: server.URL}, zap.NewNop())
	path, err := fetcher.FetchFile("pubmed26n0001.xml.gz", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestFetchFileRejectsBadChecksum(t *testing.T) {
	payload := gzipBytes(t, []byte("<PubmedArticleSet></PubmedArticleSet>"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".md5"):
			fmt.Fprint(w, "MD5(pubmed26n0001.xml.gz)= 0000000000000000000000000000abcd\n")
		default:
			w.Write(payload)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(&config.Config{MedlineBaseURL: server.URL}, zap.NewNop())
	dir := t.TempDir()
	if _, err := fetcher.FetchFile("pubmed26n0001.xml.gz", dir); err == nil {
		t.Fatal("expected checksum error")
	}
	if _, err := os.Stat(filepath.Join(dir, "pubmed26n0001.xml.gz")); !os.IsNotExist(err) {
		t.Error("file with bad checksum should have been removed")
	}
}

func TestParseFile(t *testing.T) {
	data := `<PubmedArticleSet>` + citationXML + `</PubmedArticleSet>`
	path := filepath.Join(t.TempDir(), "baseline.xml.gz")
	if err := os.WriteFile(path, gzipBytes(t, []byte(data)), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := NewFetcher(&config.Config{}, zap.NewNop())
	var rows []models.MeshPmid
	err := fetcher.ParseFile(path, func(row models.MeshPmid) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].PMIDNum != 12345 || rows[0].MeshNum != 18599 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}
