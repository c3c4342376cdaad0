package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestStoredContentRoundTrip(t *testing.T) {
	paragraphs := []string{"Title of the article", "A short abstract."}
	encoded, err := encodeStoredContent(paragraphs)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := encoded.(string); !ok {
		t.Fatalf("small payload stored as %T, want string", encoded)
	}
	decoded, err := decodeStoredContent(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, paragraphs) {
		t.Errorf("got %v, want %v", decoded, paragraphs)
	}
}

func TestStoredContentCompressesLargePayloads(t *testing.T) {
	paragraphs := []string{strings.Repeat("insulin receptor signaling ", 200)}
	encoded, err := encodeStoredContent(paragraphs)
	if err != nil {
		t.Fatal(err)
	}
	blob, ok := encoded.([]byte)
	if !ok {
		t.Fatalf("large payload stored as %T, want []byte", encoded)
	}
	if len(blob) >= len(paragraphs[0]) {
		t.Errorf("compressed payload not smaller: %d bytes", len(blob))
	}
	decoded, err := decodeStoredContent(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, paragraphs) {
		t.Error("round trip through compressed payload lost content")
	}
}
