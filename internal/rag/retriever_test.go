package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

// buildPair indexes one file with the shared stub stack and returns the
// serialized blobs plus the decoded metadata for assertions.
func buildPair(t *testing.T, embedder Embedder, text string) ([]byte, []byte, Metadata) {
	t.Helper()
	chunker, err := NewChunker(runeTokenizer{}, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBuilder(chunker, embedder, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	res, err := b.Rebuild(context.Background(), []SourceFile{
		{ID: "f1", Filename: "notes.txt", Data: []byte(text)},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, meta, err := DecodePair(res.IndexBytes, res.MetadataBytes)
	if err != nil {
		t.Fatal(err)
	}
	return res.IndexBytes, res.MetadataBytes, meta
}

func TestRetrieveDefaultsTopK(t *testing.T) {
	embedder := &hashEmbedder{}
	indexBytes, metadataBytes, meta := buildPair(t, embedder,
		"one long stretch of text that splits into a good handful of chunks")
	if len(meta.Chunks) <= DefaultTopK {
		t.Fatalf("fixture too small: %d chunks", len(meta.Chunks))
	}

	r, err := NewRetriever(embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := r.Retrieve(context.Background(), indexBytes, metadataBytes, "text", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != DefaultTopK {
		t.Errorf("topK 0 returned %d hits, want the default %d", len(hits), DefaultTopK)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("hits out of order at %d: %v after %v", i, hits[i].Distance, hits[i-1].Distance)
		}
	}
}

func TestRetrieveClampsTopKToIndexSize(t *testing.T) {
	embedder := &hashEmbedder{}
	indexBytes, metadataBytes, meta := buildPair(t, embedder, "short text")

	r, err := NewRetriever(embedder, nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := r.Retrieve(context.Background(), indexBytes, metadataBytes, "short", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != len(meta.Chunks) {
		t.Errorf("got %d hits from a %d-chunk index", len(hits), len(meta.Chunks))
	}
}

func TestRetrieveCorruptBlob(t *testing.T) {
	r, err := NewRetriever(&hashEmbedder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Retrieve(context.Background(), []byte("not a blob"), nil, "query", 1)
	if !errors.Is(err, ErrCorruptBlob) {
		t.Errorf("Retrieve error = %v, want ErrCorruptBlob", err)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	indexBytes, metadataBytes, _ := buildPair(t, &hashEmbedder{}, "indexed fine")

	r, err := NewRetriever(&hashEmbedder{fail: errEmbedDown}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Retrieve(context.Background(), indexBytes, metadataBytes, "query", 1)
	var embedErr *EmbeddingError
	if !errors.As(err, &embedErr) || !errors.Is(err, errEmbedDown) {
		t.Errorf("Retrieve error = %v, want *EmbeddingError wrapping the cause", err)
	}
}

func TestAnswerGroundsOnRetrievedChunks(t *testing.T) {
	embedder := &hashEmbedder{}
	indexBytes, metadataBytes, _ := buildPair(t, embedder, "grounding material for answers")

	r, err := NewRetriever(embedder, echoGenerator{})
	if err != nil {
		t.Fatal(err)
	}
	answer, chunks, err := r.Answer(context.Background(), indexBytes, metadataBytes, "why", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks returned alongside the answer")
	}
	want := fmt.Sprintf("answer(why|%d)", len(chunks))
	if answer != want {
		t.Errorf("answer = %q, want %q", answer, want)
	}
}

func TestAnswerWithEmptyIndexStillGenerates(t *testing.T) {
	indexBytes, err := EncodeIndex(NewFlatIndex(0))
	if err != nil {
		t.Fatal(err)
	}
	metadataBytes, err := EncodeMetadata(Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewRetriever(&hashEmbedder{}, echoGenerator{})
	if err != nil {
		t.Fatal(err)
	}
	answer, chunks, err := r.Answer(context.Background(), indexBytes, metadataBytes, "anything", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("empty index yielded %d chunks", len(chunks))
	}
	if answer != "answer(anything|0)" {
		t.Errorf("answer = %q, want the generator to run with zero contexts", answer)
	}
}

func TestAnswerRequiresGenerator(t *testing.T) {
	r, err := NewRetriever(&hashEmbedder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = r.Answer(context.Background(), nil, nil, "q", 1)
	if !errors.Is(err, ErrConfig) {
		t.Errorf("Answer without generator error = %v, want ErrConfig", err)
	}
}
