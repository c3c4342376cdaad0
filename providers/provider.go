// Package providers bündelt die Quellen, aus denen die Build-Pipeline ihre
// Rohdaten bezieht: die Upstream-Postgres-Datenbank sowie die externen
// Downloads (MEDLINE-Baseline, Entrez, MeSH-Xrefs).
package providers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// CustomTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type CustomTransport struct {
	Transport http.RoundTripper
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	return t.Transport.RoundTrip(req)
}

// HTTPClient wird für alle externen HTTP-Anfragen der Provider verwendet.
// Die Downloads der Baseline-Dateien können groß sein, daher das lange Timeout.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Minute,
	Transport: &CustomTransport{
		Transport: http.DefaultTransport,
	},
}

// DownloadFile lädt eine URL in die lokale Datei dest herunter. Ein
// Nicht-200-Status ist ein Fehler, keine leere Datei.
func DownloadFile(url, dest string) error {
	resp, err := HTTPClient.Get(url)
	if err != nil {
		return fmt.Errorf("download von %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download von %s: unerwarteter Status %d", url, resp.StatusCode)
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("schreiben von %s: %w", dest, err)
	}
	return out.Close()
}
