package services

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
)

// compressThreshold: JSON-Nutzlasten oberhalb dieser Größe werden als
// zlib-komprimierter BLOB gespeichert, der Rest als Klartext.
const compressThreshold = 1024

// encodeStoredContent serialisiert eine Absatzliste für die content-Spalte.
// Rückgabe ist entweder ein String (TEXT) oder ein Byte-Slice (BLOB).
func encodeStoredContent(paragraphs []string) (any, error) {
	payload, err := json.Marshal(paragraphs)
	if err != nil {
		return nil, fmt.Errorf("serialisieren der Absätze: %w", err)
	}
	if len(payload) <= compressThreshold {
		return string(payload), nil
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeStoredContent stellt die Absatzliste aus einer content-Spalte wieder
// her. BLOBs werden am zlib-Header erkannt und dekomprimiert.
func decodeStoredContent(value any) ([]string, error) {
	var payload []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
		if len(v) >= 2 && v[0] == 0x78 {
			r, err := zlib.NewReader(bytes.NewReader(v))
			if err == nil {
				decompressed, err := io.ReadAll(r)
				r.Close()
				if err != nil {
					return nil, fmt.Errorf("dekomprimieren des Inhalts: %w", err)
				}
				payload = decompressed
			}
		}
	default:
		return nil, fmt.Errorf("unerwarteter Spaltentyp %T für content", value)
	}
	var paragraphs []string
	if err := json.Unmarshal(payload, &paragraphs); err != nil {
		return nil, fmt.Errorf("parsen der Absatzliste: %w", err)
	}
	return paragraphs, nil
}
