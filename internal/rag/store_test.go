package rag

import (
	"errors"
	"math"
	"testing"
)

func TestIndexRoundTrip(t *testing.T) {
	ix := NewFlatIndex(4)
	if err := ix.Add(
		[]float32{0.1, -2.5, 3.75, 0},
		[]float32{1, 1, 1, 1},
		[]float32{-0.001, 42, 0, 7.5},
	); err != nil {
		t.Fatal(err)
	}

	blob, err := EncodeIndex(ix)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeIndex(blob)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Dimension() != 4 || decoded.Len() != 3 {
		t.Fatalf("decoded index: dim %d len %d", decoded.Dimension(), decoded.Len())
	}

	// The decoded index answers a fixed query with the same positions and
	// distances as the original.
	query := []float32{0.5, 0.5, 0.5, 0.5}
	before, err := ix.Search(query, 3)
	if err != nil {
		t.Fatal(err)
	}
	after, err := decoded.Search(query, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if before[i].Position != after[i].Position {
			t.Errorf("neighbor %d position changed: %d vs %d", i, before[i].Position, after[i].Position)
		}
		if math.Abs(float64(before[i].Distance-after[i].Distance)) > 1e-6 {
			t.Errorf("neighbor %d distance changed: %v vs %v", i, before[i].Distance, after[i].Distance)
		}
	}
}

func TestEmptyIndexRoundTrip(t *testing.T) {
	blob, err := EncodeIndex(NewFlatIndex(0))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeIndex(blob)
	if err != nil {
		t.Fatalf("empty index must deserialize cleanly: %v", err)
	}
	if decoded.Len() != 0 {
		t.Errorf("empty index decoded with %d vectors", decoded.Len())
	}

	metaBlob, err := EncodeMetadata(Metadata{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodePair(blob, metaBlob); err != nil {
		t.Errorf("empty pair must decode: %v", err)
	}
}

func TestDecodeIndexRejectsCorruptBlobs(t *testing.T) {
	good, err := EncodeIndex(NewFlatIndex(2))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty", blob: nil},
		{name: "truncated header", blob: good[:8]},
		{name: "bad magic", blob: append([]byte("XXXX"), good[4:]...)},
		{name: "trailing garbage", blob: append(append([]byte{}, good...), 1, 2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeIndex(tt.blob); !errors.Is(err, ErrCorruptBlob) {
				t.Errorf("DecodeIndex error = %v, want ErrCorruptBlob", err)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		Chunks: []ChunkMetadata{
			{Position: 0, FileID: "f1", ChunkIndex: 0, Source: "intro.pdf", Text: "alpha"},
			{Position: 1, FileID: "f1", ChunkIndex: 1, Source: "intro.pdf", Text: "beta"},
			{Position: 2, FileID: "f2", ChunkIndex: 0, Source: "notes.txt", Text: "gamma"},
		},
		Citations: []SourceCitation{{Source: "intro.pdf", Citation: "Intro (2024)"}},
	}

	blob, err := EncodeMetadata(meta)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeMetadata(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Chunks) != 3 {
		t.Fatalf("decoded %d chunks, want 3", len(decoded.Chunks))
	}
	for i := range meta.Chunks {
		if decoded.Chunks[i] != meta.Chunks[i] {
			t.Errorf("chunk %d changed across round trip: %+v vs %+v", i, decoded.Chunks[i], meta.Chunks[i])
		}
	}
	if len(decoded.Citations) != 1 || decoded.Citations[0] != meta.Citations[0] {
		t.Errorf("citations changed across round trip: %+v", decoded.Citations)
	}
}

func TestDecodeMetadataRejectsMisalignedPositions(t *testing.T) {
	blob, err := EncodeMetadata(Metadata{Chunks: []ChunkMetadata{
		{Position: 0, Text: "a"},
		{Position: 5, Text: "b"}, // claims a position it does not sit at
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeMetadata(blob); !errors.Is(err, ErrCorruptBlob) {
		t.Errorf("misaligned metadata error = %v, want ErrCorruptBlob", err)
	}
}

func TestDecodePairRejectsMismatchedHalves(t *testing.T) {
	ix := NewFlatIndex(2)
	if err := ix.Add([]float32{1, 2}, []float32{3, 4}); err != nil {
		t.Fatal(err)
	}
	indexBlob, err := EncodeIndex(ix)
	if err != nil {
		t.Fatal(err)
	}
	metaBlob, err := EncodeMetadata(Metadata{Chunks: []ChunkMetadata{{Position: 0, Text: "only one"}}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodePair(indexBlob, metaBlob); !errors.Is(err, ErrCorruptBlob) {
		t.Errorf("mismatched pair error = %v, want ErrCorruptBlob", err)
	}
}
