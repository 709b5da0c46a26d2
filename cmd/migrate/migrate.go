package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/internal/config"
	"learning-platform-backend/internal/logger"
	"learning-platform-backend/internal/rag"
	"learning-platform-backend/models"
	"learning-platform-backend/services"
	"learning-platform-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/migrate.go <command>")
		fmt.Println("Commands:")
		fmt.Println("  reindex-all              - Rebuild the retrieval index of every course")
		fmt.Println("  seed-admin <email> <pw>  - Create or promote an admin user")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.DBName)

	switch command {
	case "reindex-all":
		if err := reindexAll(cfg, db); err != nil {
			log.Fatalf("Reindex failed: %v", err)
		}
		fmt.Println("Reindex completed successfully!")

	case "seed-admin":
		if len(os.Args) < 4 {
			log.Fatal("Usage: seed-admin <email> <password>")
		}
		if err := seedAdmin(cfg, db, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		fmt.Println("Admin user ready!")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

// reindexAll rebuilds every course's index blobs. Run after changing chunking
// parameters or the embeddings model; existing blobs stay in place until their
// course's rebuild succeeds.
func reindexAll(cfg *config.Config, db *mongo.Database) error {
	ctx := context.Background()

	geminiClient, err := ai.NewGeminiClient(cfg, nil, logger.Logger)
	if err != nil {
		return err
	}
	defer geminiClient.Close()

	tokenizer, err := rag.NewTokenizer()
	if err != nil {
		return err
	}
	chunker, err := rag.NewChunker(tokenizer, cfg.MaxChunkTokens, cfg.ChunkOverlapTokens)
	if err != nil {
		return err
	}
	builder, err := rag.NewBuilder(chunker, geminiClient, geminiClient, logger.Logger)
	if err != nil {
		return err
	}
	indexing := services.NewIndexingService(db, builder, nil, cfg.EmbeddingsModel, logger.Logger)

	cursor, err := db.Collection("courses").Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var failures int
	for cursor.Next(ctx) {
		var course struct {
			ID    primitive.ObjectID `bson:"_id"`
			Title string             `bson:"title"`
		}
		if err := cursor.Decode(&course); err != nil {
			return err
		}

		result, err := indexing.RebuildCourse(ctx, course.ID)
		if err != nil {
			failures++
			fmt.Printf("  FAILED %s (%s): %v\n", course.Title, course.ID.Hex(), err)
			continue
		}
		fmt.Printf("  %s: %d chunks in %s\n", course.Title, result.Chunks, result.Duration)
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d courses failed to reindex", failures)
	}
	return nil
}

func seedAdmin(cfg *config.Config, db *mongo.Database, email, password string) error {
	ctx := context.Background()
	users := db.Collection("users")

	var existing models.User
	err := users.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		// Promote an existing account
		_, err = users.UpdateByID(ctx, existing.ID, bson.M{"$set": bson.M{"role": "admin", "updated_at": time.Now()}})
		return err
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	hash, err := utils.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = users.InsertOne(ctx, models.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}
