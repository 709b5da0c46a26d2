package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/models"
)

// OutlineService generates and stores the 10-chapter study outline for a
// course. When the course has an index the outline is grounded on chunks
// retrieved for the course title; otherwise it is generated from the title
// and description alone.
type OutlineService struct {
	db        *mongo.Database
	gemini    *ai.GeminiClient
	retrieval *RetrievalService
	log       *slog.Logger
}

func NewOutlineService(db *mongo.Database, gemini *ai.GeminiClient, retrieval *RetrievalService, log *slog.Logger) *OutlineService {
	if log == nil {
		log = slog.Default()
	}
	return &OutlineService{db: db, gemini: gemini, retrieval: retrieval, log: log}
}

func (s *OutlineService) Generate(ctx context.Context, course *models.Course) ([]ai.ChapterOutline, error) {
	var contexts []string
	if Indexed(course) {
		topic := course.Title
		if course.Description != "" {
			topic += ": " + course.Description
		}
		var err error
		contexts, err = s.retrieval.Contexts(ctx, course, topic, 8)
		if err != nil {
			return nil, err
		}
	}

	chapters, err := s.gemini.Outline(ctx, course.Title, contexts)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Collection("courses").UpdateByID(ctx, course.ID, bson.M{
		"$set": bson.M{
			"outline":    chapters,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store outline: %w", err)
	}

	s.log.Info("course outline generated", "course_id", course.ID.Hex(), "chapters", len(chapters), "grounded", len(contexts) > 0)
	return chapters, nil
}
