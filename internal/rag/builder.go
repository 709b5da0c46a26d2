package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SourceFile is one file currently belonging to a course, as handed over by
// the storage layer.
type SourceFile struct {
	ID       string
	Filename string
	Data     []byte
}

// Embedder turns texts into fixed-dimension vectors, one per input in input
// order. Implementations own the external service's per-request batch limit;
// a call either returns a vector for every input or fails as a unit.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CitationGenerator formats a human-readable citation for a source document,
// given a sample of its text. The core treats the result as an opaque string.
type CitationGenerator interface {
	Citation(ctx context.Context, source, sample string) (string, error)
}

// citationSampleChunks is how many leading chunks of a source feed the
// citation generator.
const citationSampleChunks = 3

// Builder runs the full document-to-index pipeline for one course:
// extract, chunk, embed, assemble, rewrite citations, serialize.
type Builder struct {
	chunker   *Chunker
	embedder  Embedder
	citations CitationGenerator
	log       *slog.Logger
}

// NewBuilder wires the pipeline. citations may be nil, in which case source
// labels stay as filenames.
func NewBuilder(chunker *Chunker, embedder Embedder, citations CitationGenerator, log *slog.Logger) (*Builder, error) {
	if chunker == nil {
		return nil, fmt.Errorf("%w: nil chunker", ErrConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: nil embedder", ErrConfig)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{chunker: chunker, embedder: embedder, citations: citations, log: log}, nil
}

// BuildResult is the serialized blob pair plus summary figures for the
// course record.
type BuildResult struct {
	IndexBytes    []byte
	MetadataBytes []byte
	Chunks        int
	Dimension     int
	Duration      time.Duration
}

// Rebuild runs the whole pipeline over every current file of a course and
// returns a fresh blob pair. It is all-or-nothing: any extraction or
// embedding failure aborts with no partial output, so the previously
// persisted pair stays valid. Zero files, or files yielding no text, produce
// a valid empty pair.
func (b *Builder) Rebuild(ctx context.Context, files []SourceFile) (*BuildResult, error) {
	tracer := otel.Tracer("rag")
	ctx, span := tracer.Start(ctx, "rag.rebuild")
	defer span.End()
	start := time.Now()

	var texts []string
	meta := Metadata{}
	for _, f := range files {
		raw, err := ExtractText(f.Data, f.Filename)
		if err != nil {
			return nil, err
		}
		chunks := b.chunker.Split(raw)
		for i, text := range chunks {
			meta.Chunks = append(meta.Chunks, ChunkMetadata{
				Position:   len(texts),
				FileID:     f.ID,
				ChunkIndex: i,
				Source:     f.Filename,
				Text:       text,
			})
			texts = append(texts, text)
		}
		b.log.Debug("chunked file", "file", f.Filename, "chunks", len(chunks))
	}
	span.SetAttributes(
		attribute.Int("rag.files", len(files)),
		attribute.Int("rag.chunks", len(texts)),
	)

	if len(texts) == 0 {
		return b.serialize(NewFlatIndex(0), meta, start)
	}

	vectors, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &EmbeddingError{Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(texts))}
	}

	ix := NewFlatIndex(len(vectors[0]))
	if err := ix.Add(vectors...); err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	if b.citations != nil {
		meta, err = b.rewriteCitations(ctx, meta)
		if err != nil {
			return nil, err
		}
	}

	return b.serialize(ix, meta, start)
}

// rewriteCitations generates one formatted citation per distinct source and
// replaces the raw labels before serialization. Metadata only; text and
// vectors are untouched.
func (b *Builder) rewriteCitations(ctx context.Context, meta Metadata) (Metadata, error) {
	citations := make(map[string]string)
	for _, source := range meta.DistinctSources() {
		citation, err := b.citations.Citation(ctx, source, meta.SampleText(source, citationSampleChunks))
		if err != nil {
			return Metadata{}, fmt.Errorf("generate citation for %s: %w", source, err)
		}
		if citation == "" {
			continue
		}
		citations[source] = citation
	}
	return RewriteCitations(meta, citations), nil
}

func (b *Builder) serialize(ix *FlatIndex, meta Metadata, start time.Time) (*BuildResult, error) {
	indexBytes, err := EncodeIndex(ix)
	if err != nil {
		return nil, err
	}
	metadataBytes, err := EncodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	res := &BuildResult{
		IndexBytes:    indexBytes,
		MetadataBytes: metadataBytes,
		Chunks:        ix.Len(),
		Dimension:     ix.Dimension(),
		Duration:      time.Since(start),
	}
	b.log.Info("index rebuilt", "chunks", res.Chunks, "dimension", res.Dimension, "took", res.Duration)
	return res, nil
}
