package ai

import (
	"log/slog"
	"testing"

	"learning-platform-backend/internal/config"
)

func geminiTestConfig() *config.Config {
	return &config.Config{
		GeminiAPIKey:       "test-key",
		GeminiTier:         "free",
		GenerationModel:    "gemini-2.0-flash",
		TranscriptionModel: "gemini-2.0-flash-lite",
		EmbeddingsModel:    "text-embedding-004",
		EmbedBatchSize:     100,
	}
}

func TestNewGeminiClientPinsTranscriptionModel(t *testing.T) {
	gc, err := NewGeminiClient(geminiTestConfig(), nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer gc.Close()

	if gc.transcriptionModel != "gemini-2.0-flash-lite" {
		t.Errorf("transcription model = %q, want the configured gemini-2.0-flash-lite", gc.transcriptionModel)
	}
	if gc.generationModel != "gemini-2.0-flash" {
		t.Errorf("generation model = %q", gc.generationModel)
	}
}

func TestNewGeminiClientTranscriptionFallsBack(t *testing.T) {
	cfg := geminiTestConfig()
	cfg.TranscriptionModel = ""
	gc, err := NewGeminiClient(cfg, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer gc.Close()

	if gc.transcriptionModel != cfg.GenerationModel {
		t.Errorf("transcription model = %q, want fallback to %q", gc.transcriptionModel, cfg.GenerationModel)
	}
}

func TestRecordUsageToleratesNilMetrics(t *testing.T) {
	gc, err := NewGeminiClient(geminiTestConfig(), nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer gc.Close()

	gc.recordUsage(nil, gc.generationModel)
}
