package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/internal/config"
	"learning-platform-backend/internal/logger"
	"learning-platform-backend/internal/rag"
	"learning-platform-backend/internal/telemetry"
	"learning-platform-backend/middleware"
	"learning-platform-backend/routes"
	"learning-platform-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Distributed tracing
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("learning-platform-backend", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Connect to Redis (token revocation, rate limiting, task queue)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Initialize Gemini client
	geminiClient, err := ai.NewGeminiClient(cfg, metrics, logger.Logger)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	// Indexing and retrieval pipeline
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
	retriever, err := rag.NewRetriever(geminiClient, geminiClient)
	if err != nil {
		log.Fatal("Failed to configure retriever:", err)
	}

	indexing := services.NewIndexingService(db, builder, metrics, cfg.EmbeddingsModel, logger.Logger)
	retrieval := services.NewRetrievalService(indexing, retriever, metrics, cfg.RetrievalTopK, logger.Logger)
	tutor := services.NewTutorService(db, geminiClient, retrieval, logger.Logger)
	outline := services.NewOutlineService(db, geminiClient, retrieval, logger.Logger)
	export := services.NewExportService(db, logger.Logger)

	// Asynq client for enqueueing transcription work
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))
	router.Use(middleware.RoleBasedRateLimit(rdb, cfg))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg, rdb)
	roleMiddleware := middleware.NewRoleMiddleware()

	// Setup routes
	routes.SetupAuthRoutes(router, cfg, db, rdb, authMiddleware)
	routes.SetupAdminRoutes(router, db, authMiddleware, roleMiddleware)
	routes.SetupOnboardingRoutes(router, db, authMiddleware)
	routes.SetupCourseRoutes(router, db, authMiddleware, outline)
	routes.SetupFileRoutes(router, cfg, db, authMiddleware, indexing, queueClient)
	routes.SetupLearnRoutes(router, db, authMiddleware, retrieval)
	routes.SetupChatRoutes(router, db, authMiddleware, tutor, export)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
