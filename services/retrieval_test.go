package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"learning-platform-backend/internal/rag"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"
)

// originEmbedder embeds every query at the origin, so index positions come
// back ordered by their vector magnitude.
type originEmbedder struct{}

func (originEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0}
	}
	return out, nil
}

// indexedCourse builds a course whose stored pair holds n one-dimensional
// vectors at 1..n with matching metadata records.
func indexedCourse(t *testing.T, n int) *models.Course {
	t.Helper()
	ix := rag.NewFlatIndex(1)
	meta := rag.Metadata{}
	for i := 0; i < n; i++ {
		if err := ix.Add([]float32{float32(i + 1)}); err != nil {
			t.Fatal(err)
		}
		meta.Chunks = append(meta.Chunks, rag.ChunkMetadata{
			Position:   i,
			FileID:     "f1",
			ChunkIndex: i,
			Source:     "notes.txt",
			Text:       fmt.Sprintf("chunk %d", i),
		})
	}
	indexBytes, err := rag.EncodeIndex(ix)
	if err != nil {
		t.Fatal(err)
	}
	metadataBytes, err := rag.EncodeMetadata(meta)
	if err != nil {
		t.Fatal(err)
	}
	indexBlob, err := utils.CompressData(indexBytes, utils.CompressionGzip)
	if err != nil {
		t.Fatal(err)
	}
	metadataBlob, err := utils.CompressData(metadataBytes, utils.CompressionGzip)
	if err != nil {
		t.Fatal(err)
	}
	return &models.Course{
		Title:        "Signals",
		IndexBlob:    indexBlob,
		MetadataBlob: metadataBlob,
		IndexInfo:    &models.IndexInfo{Chunks: n, Dimension: 1, Model: "stub", BuiltAt: time.Now()},
	}
}

func retrievalFixture(t *testing.T, defaultTopK int) *RetrievalService {
	t.Helper()
	retriever, err := rag.NewRetriever(originEmbedder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewRetrievalService(nil, retriever, nil, defaultTopK, nil)
}

func TestQueryUsesConfiguredTopKWhenOmitted(t *testing.T) {
	course := indexedCourse(t, 8)
	svc := retrievalFixture(t, 6)

	res, err := svc.Query(context.Background(), course, models.QueryRequest{
		Query:            "signals",
		BypassGeneration: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chunks) != 6 {
		t.Errorf("omitted top_k returned %d chunks, want the configured 6", len(res.Chunks))
	}
}

func TestQueryTopKRequestOverridesDefault(t *testing.T) {
	course := indexedCourse(t, 8)
	svc := retrievalFixture(t, 6)

	res, err := svc.Query(context.Background(), course, models.QueryRequest{
		Query:            "signals",
		BypassGeneration: true,
		TopK:             2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chunks) != 2 {
		t.Errorf("top_k 2 returned %d chunks", len(res.Chunks))
	}
}

func TestNewRetrievalServiceFallsBackToPackageDefault(t *testing.T) {
	course := indexedCourse(t, 8)
	svc := retrievalFixture(t, 0)

	res, err := svc.Query(context.Background(), course, models.QueryRequest{
		Query:            "signals",
		BypassGeneration: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chunks) != rag.DefaultTopK {
		t.Errorf("unconfigured service returned %d chunks, want %d", len(res.Chunks), rag.DefaultTopK)
	}
}
