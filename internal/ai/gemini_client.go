package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"learning-platform-backend/internal/config"
	"learning-platform-backend/internal/telemetry"
)

// GeminiClient wraps the Generative AI SDK behind a circuit breaker and a
// client-side rate limiter. It is the single implementation of the embedding,
// citation, answer and transcription contracts the rest of the platform
// consumes.
type GeminiClient struct {
	client             *genai.Client
	breaker            *gobreaker.CircuitBreaker
	rateLimiter        *rate.Limiter
	generationModel    string
	transcriptionModel string
	embeddingsModel    string
	batchSize          int
	metrics            *telemetry.Metrics
	log                *slog.Logger
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiClient(cfg *config.Config, metrics *telemetry.Metrics, log *slog.Logger) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	// Configure rate limits based on tier
	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), maxInt(limits.RPM/10, 1))

	batchSize := cfg.EmbedBatchSize
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	transcriptionModel := cfg.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = cfg.GenerationModel
	}

	return &GeminiClient{
		client:             client,
		breaker:            breaker,
		rateLimiter:        rateLimiter,
		generationModel:    cfg.GenerationModel,
		transcriptionModel: transcriptionModel,
		embeddingsModel:    cfg.EmbeddingsModel,
		batchSize:          batchSize,
		metrics:            metrics,
		log:                log,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// generate runs one GenerateContent call through the limiter and breaker and
// collapses the response to plain text.
func (gc *GeminiClient) generate(ctx context.Context, span string, temperature float32, parts ...genai.Part) (string, error) {
	return gc.generateWith(ctx, gc.generationModel, span, temperature, parts...)
}

func (gc *GeminiClient) generateWith(ctx context.Context, modelName, span string, temperature float32, parts ...genai.Part) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, sp := tracer.Start(ctx, span)
	defer sp.End()
	sp.SetAttributes(attribute.String("gemini.model", modelName))

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		sp.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(modelName)
		model.SetTemperature(temperature)
		model.SetMaxOutputTokens(8192)

		return model.GenerateContent(ctx, parts...)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			sp.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "", fmt.Errorf("generation service temporarily unavailable: %w", err)
		}
		sp.SetAttributes(attribute.Bool("gemini.error", true))
		return "", err
	}
	sp.SetAttributes(attribute.Bool("gemini.success", true))
	resp := result.(*genai.GenerateContentResponse)
	gc.recordUsage(resp, modelName)
	return responseText(resp), nil
}

// recordUsage feeds the token counts the API reports into the usage counter.
func (gc *GeminiClient) recordUsage(resp *genai.GenerateContentResponse, modelName string) {
	if gc.metrics == nil || resp == nil || resp.UsageMetadata == nil {
		return
	}
	gc.metrics.RecordTokensUsed(int64(resp.UsageMetadata.TotalTokenCount), modelName)
}

// responseText concatenates the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

// GroundedAnswer answers the query using only the supplied course excerpts.
// With no excerpts the model is told the course has no indexed material, so
// the user gets an honest reply instead of a hallucinated one.
func (gc *GeminiClient) GroundedAnswer(ctx context.Context, query string, contexts []string) (string, error) {
	var prompt strings.Builder
	if len(contexts) == 0 {
		prompt.WriteString("The course has no indexed material yet. Tell the user that, briefly, and suggest uploading course documents first.\n\n")
	} else {
		prompt.WriteString("Answer the question using only the following excerpts from the user's course materials. If the excerpts do not contain the answer, say so.\n\n")
		for i, chunk := range contexts {
			fmt.Fprintf(&prompt, "Excerpt %d:\n%s\n\n", i+1, chunk)
		}
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(query)

	return gc.generate(ctx, "gemini.grounded_answer", 0.3, genai.Text(prompt.String()))
}

// Citation formats an APA-style citation for a source document from a sample
// of its text. Returns the source unchanged when the model produces nothing
// usable, so indexing never fails over citation cosmetics.
func (gc *GeminiClient) Citation(ctx context.Context, source, sample string) (string, error) {
	prompt := fmt.Sprintf(
		"Produce a single APA-style citation for the document %q based on this excerpt. Reply with the citation only, no commentary.\n\nExcerpt:\n%s",
		source, sample)

	citation, err := gc.generate(ctx, "gemini.citation", 0.2, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	citation = strings.TrimSpace(citation)
	if citation == "" {
		return source, nil
	}
	return citation, nil
}

// ChapterOutline is one chapter of a generated course outline.
type ChapterOutline struct {
	Number int    `json:"number" bson:"number"`
	Title  string `json:"title" bson:"title"`
	Goal   string `json:"goal" bson:"goal"`
}

// Outline asks the model for a 10-chapter study outline and parses the JSON
// reply. The model is forced into JSON output mode so parsing failures are
// genuine errors rather than markdown fences.
func (gc *GeminiClient) Outline(ctx context.Context, title string, contexts []string) ([]ChapterOutline, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, sp := tracer.Start(ctx, "gemini.outline")
	defer sp.End()

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Create a 10-chapter study outline for a course titled %q.\n", title)
	if len(contexts) > 0 {
		prompt.WriteString("Base it on these excerpts from the course materials:\n\n")
		for i, chunk := range contexts {
			fmt.Fprintf(&prompt, "Excerpt %d:\n%s\n\n", i+1, chunk)
		}
	}
	prompt.WriteString(`Reply as a JSON array of exactly 10 objects with keys "number", "title" and "goal".`)

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.generationModel)
		model.SetTemperature(0.5)
		model.ResponseMIMEType = "application/json"
		return model.GenerateContent(ctx, genai.Text(prompt.String()))
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*genai.GenerateContentResponse)
	gc.recordUsage(resp, gc.generationModel)

	var chapters []ChapterOutline
	if err := json.Unmarshal([]byte(responseText(resp)), &chapters); err != nil {
		return nil, fmt.Errorf("parse outline response: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("outline response contained no chapters")
	}
	return chapters, nil
}

// TutorReply continues a tutoring conversation. The persona string comes from
// the user's onboarding profile and shapes tone and depth; contexts are the
// chunks retrieved for the latest message.
func (gc *GeminiClient) TutorReply(ctx context.Context, persona string, history []TutorTurn, message string, contexts []string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("You are a personal tutor.\n")
	if persona != "" {
		prompt.WriteString(persona)
		prompt.WriteString("\n")
	}
	if len(contexts) > 0 {
		prompt.WriteString("\nRelevant course material:\n")
		for i, chunk := range contexts {
			fmt.Fprintf(&prompt, "Excerpt %d:\n%s\n\n", i+1, chunk)
		}
	}
	if len(history) > 0 {
		prompt.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&prompt, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	prompt.WriteString("\nStudent: ")
	prompt.WriteString(message)
	prompt.WriteString("\nTutor:")

	return gc.generate(ctx, "gemini.tutor_reply", 0.7, genai.Text(prompt.String()))
}

// TutorTurn is one prior exchange in a tutoring conversation.
type TutorTurn struct {
	Role string // "student" or "tutor"
	Text string
}

// Transcribe turns an uploaded audio recording into plain text. It runs on
// the transcription model, which can be pinned separately from the chat and
// answer model.
func (gc *GeminiClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return gc.generateWith(ctx, gc.transcriptionModel, "gemini.transcribe", 0,
		genai.Blob{MIMEType: mimeType, Data: audio},
		genai.Text("Transcribe this recording verbatim. Reply with the transcript only."))
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
