package services

import (
	"context"
	"log/slog"

	"learning-platform-backend/internal/rag"
	"learning-platform-backend/internal/telemetry"
	"learning-platform-backend/models"
)

// RetrievalService answers course queries against the stored blob pair.
type RetrievalService struct {
	indexing    *IndexingService
	retriever   *rag.Retriever
	metrics     *telemetry.Metrics
	defaultTopK int
	log         *slog.Logger
}

func NewRetrievalService(indexing *IndexingService, retriever *rag.Retriever, metrics *telemetry.Metrics, defaultTopK int, log *slog.Logger) *RetrievalService {
	if log == nil {
		log = slog.Default()
	}
	if defaultTopK <= 0 {
		defaultTopK = rag.DefaultTopK
	}
	return &RetrievalService{
		indexing:    indexing,
		retriever:   retriever,
		metrics:     metrics,
		defaultTopK: defaultTopK,
		log:         log,
	}
}

// QueryResult is either raw chunks (bypass mode) or a generated answer.
type QueryResult struct {
	Chunks []rag.RetrievedChunk `json:"chunks,omitempty"`
	Answer string               `json:"answer,omitempty"`
}

// Query runs one retrieval against the course index. An unindexed course
// behaves like an empty index: bypass returns no chunks, generation produces
// the "nothing indexed" answer path.
func (s *RetrievalService) Query(ctx context.Context, course *models.Course, req models.QueryRequest) (*QueryResult, error) {
	indexBytes, metadataBytes, err := s.pairFor(ctx, course)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	if req.BypassGeneration {
		chunks, err := s.retriever.Retrieve(ctx, indexBytes, metadataBytes, req.Query, topK)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordQuery("bypass", len(chunks))
		}
		if chunks == nil {
			chunks = []rag.RetrievedChunk{}
		}
		return &QueryResult{Chunks: chunks}, nil
	}

	answer, chunks, err := s.retriever.Answer(ctx, indexBytes, metadataBytes, req.Query, topK)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordQuery("generation", len(chunks))
	}
	return &QueryResult{Answer: answer}, nil
}

// Contexts returns the chunk texts retrieved for a query, for callers that
// assemble their own prompt (tutor chat, outline generation). An unindexed
// course yields nil.
func (s *RetrievalService) Contexts(ctx context.Context, course *models.Course, query string, topK int) ([]string, error) {
	indexBytes, metadataBytes, err := s.pairFor(ctx, course)
	if err != nil {
		return nil, err
	}
	chunks, err := s.retriever.Retrieve(ctx, indexBytes, metadataBytes, query, topK)
	if err != nil {
		return nil, err
	}
	contexts := make([]string, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Text
	}
	return contexts, nil
}

// Citations decodes the metadata blob and returns the stored source/citation
// pairs. An unindexed course has none.
func (s *RetrievalService) Citations(ctx context.Context, course *models.Course) ([]rag.SourceCitation, error) {
	if !Indexed(course) {
		return []rag.SourceCitation{}, nil
	}
	_, metadataBytes, err := decompressPair(course.IndexBlob, course.MetadataBlob)
	if err != nil {
		return nil, err
	}
	meta, err := rag.DecodeMetadata(metadataBytes)
	if err != nil {
		return nil, err
	}
	if meta.Citations == nil {
		return []rag.SourceCitation{}, nil
	}
	return meta.Citations, nil
}

// pairFor loads the blob pair, substituting a valid empty pair for courses
// that were never indexed.
func (s *RetrievalService) pairFor(ctx context.Context, course *models.Course) ([]byte, []byte, error) {
	if Indexed(course) {
		return decompressPair(course.IndexBlob, course.MetadataBlob)
	}
	indexBytes, err := rag.EncodeIndex(rag.NewFlatIndex(0))
	if err != nil {
		return nil, nil, err
	}
	metadataBytes, err := rag.EncodeMetadata(rag.Metadata{})
	if err != nil {
		return nil, nil, err
	}
	return indexBytes, metadataBytes, nil
}
