package ai

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	genai "github.com/google/generative-ai-go/genai"
)

// EmbedTexts embeds every text and returns one vector per input, in input
// order. The API caps one batch request at 100 contents, so longer inputs
// are split into consecutive batch calls; any failed call fails the whole
// operation.
func (gc *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_texts")
	defer span.End()
	span.SetAttributes(
		attribute.Int("gemini.texts", len(texts)),
		attribute.String("gemini.model", gc.embeddingsModel),
	)

	if len(texts) == 0 {
		return nil, nil
	}

	model := gc.client.EmbeddingModel(gc.embeddingsModel)
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += gc.batchSize {
		end := start + gc.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		if err := gc.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := gc.breaker.Execute(func() (interface{}, error) {
			batch := model.NewBatch()
			for _, text := range chunk {
				batch.AddContent(genai.Text(text))
			}
			return model.BatchEmbedContents(ctx, batch)
		})
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}

		resp := result.(*genai.BatchEmbedContentsResponse)
		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("embeddings API returned %d vectors for %d texts", len(resp.Embeddings), len(chunk))
		}
		for _, embedding := range resp.Embeddings {
			if embedding == nil || len(embedding.Values) == 0 {
				return nil, fmt.Errorf("embeddings API returned an empty vector")
			}
			vectors = append(vectors, embedding.Values)
		}
	}

	return vectors, nil
}
