package main

import (
	"context"
	"log"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/internal/config"
	"learning-platform-backend/internal/logger"
	"learning-platform-backend/internal/queue"
	"learning-platform-backend/internal/rag"
	"learning-platform-backend/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.DBName)

	// Initialize Gemini client
	geminiClient, err := ai.NewGeminiClient(cfg, nil, logger.Logger)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	// Indexing pipeline, shared with the API server
	tokenizer, err := rag.NewTokenizer()
	if err != nil {
		log.Fatal("Failed to load tokenizer:", err)
	}
	chunker, err := rag.NewChunker(tokenizer, cfg.MaxChunkTokens, cfg.ChunkOverlapTokens)
	if err != nil {
		log.Fatal("Failed to configure chunker:", err)
	}
	builder, err := rag.NewBuilder(chunker, geminiClient, geminiClient, logger.Logger)
	if err != nil {
		log.Fatal("Failed to configure index builder:", err)
	}
	indexing := services.NewIndexingService(db, builder, nil, cfg.EmbeddingsModel, logger.Logger)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(db, geminiClient, indexing, logger.Logger)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTranscribeAudio, processor.TranscribeAudio)

	logger.Info("starting worker", "redis", redisOpt.Addr, "concurrency", 10)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
