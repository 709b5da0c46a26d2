package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// JWT Token Secrets
	AccessSecret  string
	RefreshSecret string
	AccessTTL     int // minutes
	RefreshTTL    int // hours

	// Gemini
	GeminiAPIKey       string
	GeminiTier         string
	GenerationModel    string
	EmbeddingsModel    string
	TranscriptionModel string

	// Indexing pipeline
	MaxChunkTokens     int
	ChunkOverlapTokens int
	RetrievalTopK      int
	EmbedBatchSize     int

	// Upload limits
	MaxFileSize  int64
	AllowedTypes []string

	BcryptCost      int
	RateLimitReqs   int
	RateLimitWindow int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/learning_platform"),
		DBName:      getEnv("DB_NAME", "learning_platform"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		AccessSecret:  getEnv("ACCESS_SECRET", ""),
		RefreshSecret: getEnv("REFRESH_SECRET", ""),
		AccessTTL:     getEnvInt("ACCESS_TTL_MINUTES", 15),
		RefreshTTL:    getEnvInt("REFRESH_TTL_HOURS", 168),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiTier:         getEnv("GEMINI_TIER", "free"),
		GenerationModel:    getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel:    getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "gemini-2.0-flash"),

		MaxChunkTokens:     getEnvInt("MAX_CHUNK_TOKENS", 500),
		ChunkOverlapTokens: getEnvInt("CHUNK_OVERLAP_TOKENS", 50),
		RetrievalTopK:      getEnvInt("RETRIEVAL_TOP_K", 4),
		EmbedBatchSize:     getEnvInt("EMBED_BATCH_SIZE", 100),

		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES",
			"application/pdf,text/plain,text/markdown,"+
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document,"+
				"application/vnd.openxmlformats-officedocument.presentationml.presentation,"+
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,"+
				"audio/mpeg,audio/wav,audio/mp4,audio/ogg"), ","),

		BcryptCost:      getEnvInt("BCRYPT_COST", 12),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Validate required fields
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}

	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("REFRESH_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlapTokens >= cfg.MaxChunkTokens {
		return nil, fmt.Errorf("CHUNK_OVERLAP_TOKENS must be smaller than MAX_CHUNK_TOKENS")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
