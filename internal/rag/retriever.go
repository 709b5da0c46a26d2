package rag

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultTopK is how many chunks a query returns unless the caller asks for
// a different number.
const DefaultTopK = 4

// AnswerGenerator synthesizes a grounded answer from the query and the
// retrieved chunk texts. Implemented outside the core by the LLM client.
type AnswerGenerator interface {
	GroundedAnswer(ctx context.Context, query string, contexts []string) (string, error)
}

// RetrievedChunk is one search hit resolved through the metadata map.
type RetrievedChunk struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	FileID     string  `json:"file_id"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float32 `json:"distance"`
}

// Retriever answers queries against a deserialized blob pair. It holds no
// index state of its own: every call takes the pair as input, so concurrent
// requests for different courses never share anything mutable.
type Retriever struct {
	embedder  Embedder
	generator AnswerGenerator
}

func NewRetriever(embedder Embedder, generator AnswerGenerator) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: nil embedder", ErrConfig)
	}
	return &Retriever{embedder: embedder, generator: generator}, nil
}

// Retrieve embeds the query and returns the topK most similar chunks with
// their metadata, nearest first. An empty index yields an empty result:
// "no relevant content" is an expected outcome, not a failure.
func (r *Retriever) Retrieve(ctx context.Context, indexBytes, metadataBytes []byte, query string, topK int) ([]RetrievedChunk, error) {
	tracer := otel.Tracer("rag")
	ctx, span := tracer.Start(ctx, "rag.retrieve")
	defer span.End()

	if topK <= 0 {
		topK = DefaultTopK
	}

	ix, meta, err := DecodePair(indexBytes, metadataBytes)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("rag.index_size", ix.Len()),
		attribute.Int("rag.top_k", topK),
	)
	if ix.Len() == 0 {
		return nil, nil
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vectors) != 1 {
		return nil, &EmbeddingError{Err: fmt.Errorf("got %d vectors for one query", len(vectors))}
	}

	neighbors, err := ix.Search(vectors[0], topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]RetrievedChunk, len(neighbors))
	for i, n := range neighbors {
		record := meta.Chunks[n.Position]
		chunks[i] = RetrievedChunk{
			Text:       record.Text,
			Source:     record.Source,
			FileID:     record.FileID,
			ChunkIndex: record.ChunkIndex,
			Distance:   n.Distance,
		}
	}
	return chunks, nil
}

// Answer retrieves like Retrieve, then feeds the chunk texts and the query
// to the generator and returns the synthesized answer alongside the chunks
// it was grounded on. With an empty index the generator still runs, with no
// contexts, so the caller gets an honest "nothing indexed" style reply.
func (r *Retriever) Answer(ctx context.Context, indexBytes, metadataBytes []byte, query string, topK int) (string, []RetrievedChunk, error) {
	if r.generator == nil {
		return "", nil, fmt.Errorf("%w: retriever has no answer generator", ErrConfig)
	}

	chunks, err := r.Retrieve(ctx, indexBytes, metadataBytes, query, topK)
	if err != nil {
		return "", nil, err
	}

	contexts := make([]string, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Text
	}
	answer, err := r.generator.GroundedAnswer(ctx, query, contexts)
	if err != nil {
		return "", nil, err
	}
	return answer, chunks, nil
}
