package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestBuilder(t *testing.T, embedder Embedder, citations CitationGenerator) *Builder {
	t.Helper()
	chunker, err := NewChunker(runeTokenizer{}, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBuilder(chunker, embedder, citations, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRebuildSingleFileAndQuery(t *testing.T) {
	embedder := &hashEmbedder{}
	b := newTestBuilder(t, embedder, nil)

	text := "the quick brown fox jumps over the lazy dog"
	res, err := b.Rebuild(context.Background(), []SourceFile{
		{ID: "f1", Filename: "notes.txt", Data: []byte(text)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks < 2 {
		t.Fatalf("expected the text to split into several chunks, got %d", res.Chunks)
	}

	ix, meta, err := DecodePair(res.IndexBytes, res.MetadataBytes)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != len(meta.Chunks) || ix.Len() != res.Chunks {
		t.Fatalf("index has %d vectors, metadata has %d records, result says %d",
			ix.Len(), len(meta.Chunks), res.Chunks)
	}
	for i, c := range meta.Chunks {
		if c.Position != i || c.FileID != "f1" || c.Source != "notes.txt" || c.ChunkIndex != i {
			t.Errorf("record %d misaligned: %+v", i, c)
		}
	}

	// Querying with the exact text of a middle chunk must return that chunk
	// first, at distance zero.
	r, err := NewRetriever(embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := meta.Chunks[1].Text
	hits, err := r.Retrieve(context.Background(), res.IndexBytes, res.MetadataBytes, want, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Text != want || hits[0].ChunkIndex != 1 {
		t.Errorf("top hit = %+v, want the queried chunk", hits[0])
	}
	if hits[0].Distance != 0 {
		t.Errorf("exact match distance = %v, want 0", hits[0].Distance)
	}
}

func TestRebuildAfterFileRemoval(t *testing.T) {
	embedder := &hashEmbedder{}
	b := newTestBuilder(t, embedder, nil)

	f1 := SourceFile{ID: "f1", Filename: "keep.txt", Data: []byte("alpha bravo charlie delta echo")}
	f2 := SourceFile{ID: "f2", Filename: "drop.txt", Data: []byte("foxtrot golf hotel india juliet")}

	both, err := b.Rebuild(context.Background(), []SourceFile{f1, f2})
	if err != nil {
		t.Fatal(err)
	}
	only, err := b.Rebuild(context.Background(), []SourceFile{f1})
	if err != nil {
		t.Fatal(err)
	}
	if only.Chunks >= both.Chunks {
		t.Fatalf("rebuild without f2 kept %d chunks, full corpus had %d", only.Chunks, both.Chunks)
	}

	_, meta, err := DecodePair(only.IndexBytes, only.MetadataBytes)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range meta.Chunks {
		if c.FileID != "f1" {
			t.Errorf("record %d still references removed file: %+v", i, c)
		}
	}
}

func TestRebuildEmptyCorpus(t *testing.T) {
	embedder := &hashEmbedder{}
	b := newTestBuilder(t, embedder, nil)

	res, err := b.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 0 || res.Dimension != 0 {
		t.Fatalf("empty corpus produced chunks=%d dim=%d", res.Chunks, res.Dimension)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for an empty corpus", embedder.calls)
	}

	// The empty pair must be queryable: no hits, no error.
	r, err := NewRetriever(embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := r.Retrieve(context.Background(), res.IndexBytes, res.MetadataBytes, "anything", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("empty index returned %d hits", len(hits))
	}
}

func TestRebuildExtractionFailureAborts(t *testing.T) {
	b := newTestBuilder(t, &hashEmbedder{}, nil)

	_, err := b.Rebuild(context.Background(), []SourceFile{
		{ID: "f1", Filename: "fine.txt", Data: []byte("readable text")},
		{ID: "f2", Filename: "legacy.doc", Data: []byte{0xd0, 0xcf, 0x11, 0xe0}},
	})
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Rebuild error = %v, want *ExtractionError", err)
	}
	if extractErr.Filename != "legacy.doc" {
		t.Errorf("failure attributed to %q, want legacy.doc", extractErr.Filename)
	}
}

func TestRebuildEmbeddingFailureAborts(t *testing.T) {
	b := newTestBuilder(t, &hashEmbedder{fail: errEmbedDown}, nil)

	_, err := b.Rebuild(context.Background(), []SourceFile{
		{ID: "f1", Filename: "notes.txt", Data: []byte("some text to embed")},
	})
	var embedErr *EmbeddingError
	if !errors.As(err, &embedErr) {
		t.Fatalf("Rebuild error = %v, want *EmbeddingError", err)
	}
	if !errors.Is(err, errEmbedDown) {
		t.Errorf("error chain lost the cause: %v", err)
	}
}

func TestRebuildRewritesCitations(t *testing.T) {
	gen := &staticCitations{}
	b := newTestBuilder(t, &hashEmbedder{}, gen)

	res, err := b.Rebuild(context.Background(), []SourceFile{
		{ID: "f1", Filename: "intro.txt", Data: []byte("alpha bravo charlie delta echo")},
		{ID: "f2", Filename: "notes.txt", Data: []byte("foxtrot golf hotel india juliet")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 2 {
		t.Errorf("citation generator called %d times, want once per source", gen.calls)
	}

	_, meta, err := DecodePair(res.IndexBytes, res.MetadataBytes)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range meta.Chunks {
		if !strings.HasPrefix(c.Source, "[cite] ") {
			t.Errorf("record %d source not rewritten: %q", i, c.Source)
		}
	}
	if len(meta.Citations) != 2 {
		t.Fatalf("got %d stored citations, want 2", len(meta.Citations))
	}
	for _, sc := range meta.Citations {
		if sc.Citation != "[cite] "+sc.Source {
			t.Errorf("stored citation pair inconsistent: %+v", sc)
		}
	}
}
