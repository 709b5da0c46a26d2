package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("REFRESH_SECRET", strings.Repeat("b", 32))
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MaxChunkTokens != 500 {
		t.Errorf("MaxChunkTokens = %d, want 500", cfg.MaxChunkTokens)
	}
	if cfg.ChunkOverlapTokens != 50 {
		t.Errorf("ChunkOverlapTokens = %d, want 50", cfg.ChunkOverlapTokens)
	}
	if cfg.RetrievalTopK != 4 {
		t.Errorf("RetrievalTopK = %d, want 4", cfg.RetrievalTopK)
	}
	if cfg.EmbeddingsModel == "" {
		t.Error("EmbeddingsModel should have a default")
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing access secret")
	}
}

func TestLoadConfigRejectsOverlapNotBelowChunkSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CHUNK_TOKENS", "100")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "100")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when overlap is not smaller than chunk size")
	}
}
