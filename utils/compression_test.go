package utils

import (
	"bytes"
	"testing"
)

func TestGzipRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("retrieval index payload "), 200)

	compressed, err := CompressData(original, CompressionGzip)
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Fatalf("expected compression to shrink repetitive data: %d >= %d", len(compressed), len(original))
	}

	restored, err := DecompressData(compressed, CompressionGzip)
	if err != nil {
		t.Fatalf("decompress error: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Fatal("round trip mismatch")
	}
}

func TestCompressEmpty(t *testing.T) {
	out, err := CompressData(nil, CompressionGzip)
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestCompressUnsupportedAlgorithm(t *testing.T) {
	if _, err := CompressData([]byte("x"), "zstd"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
	if _, err := DecompressData([]byte("x"), "zstd"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestCompressNonePassthrough(t *testing.T) {
	data := []byte("plain")
	out, err := CompressData(data, CompressionNone)
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("none algorithm should pass data through")
	}
}
