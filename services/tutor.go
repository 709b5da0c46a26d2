package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"
)

// historyWindow caps how many prior messages feed the tutor prompt.
const historyWindow = 20

// TutorService runs persona-shaped tutoring conversations, grounded on the
// course index when the chat is bound to a course.
type TutorService struct {
	db        *mongo.Database
	gemini    *ai.GeminiClient
	retrieval *RetrievalService
	log       *slog.Logger
}

func NewTutorService(db *mongo.Database, gemini *ai.GeminiClient, retrieval *RetrievalService, log *slog.Logger) *TutorService {
	if log == nil {
		log = slog.Default()
	}
	return &TutorService{db: db, gemini: gemini, retrieval: retrieval, log: log}
}

// Reply appends the student's message to the chat, generates the tutor's
// answer and persists both. The reply is grounded on retrieved course
// material when the chat is bound to a course with an index.
func (s *TutorService) Reply(ctx context.Context, chat *models.Chat, userID primitive.ObjectID, content string) (*models.ChatReplyResponse, error) {
	persona := s.personaFor(ctx, userID)
	history, err := s.recentHistory(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	var contexts []string
	grounded := false
	if chat.CourseID != nil {
		var course models.Course
		err := s.db.Collection("courses").FindOne(ctx, bson.M{"_id": *chat.CourseID}).Decode(&course)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("load chat course: %w", err)
		}
		if err == nil && Indexed(&course) {
			contexts, err = s.retrieval.Contexts(ctx, &course, content, 0)
			if err != nil {
				return nil, err
			}
			grounded = len(contexts) > 0
		}
	}

	reply, err := s.gemini.TutorReply(ctx, persona, history, content, contexts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	messages := s.db.Collection("chat_messages")
	student := models.ChatMessage{
		ChatID:    chat.ID,
		UserID:    userID,
		Role:      models.ChatRoleStudent,
		Content:   content,
		Timestamp: now,
	}
	tutor := models.ChatMessage{
		ChatID:    chat.ID,
		UserID:    userID,
		Role:      models.ChatRoleTutor,
		Content:   reply,
		Timestamp: now,
	}
	if _, err := messages.InsertOne(ctx, student); err != nil {
		return nil, fmt.Errorf("store student message: %w", err)
	}
	res, err := messages.InsertOne(ctx, tutor)
	if err != nil {
		return nil, fmt.Errorf("store tutor message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		tutor.ID = id
	}

	_, err = s.db.Collection("chats").UpdateByID(ctx, chat.ID, bson.M{"$set": bson.M{"updated_at": now}})
	if err != nil {
		s.log.Warn("failed to bump chat timestamp", "chat_id", chat.ID.Hex(), "error", err)
	}

	return &models.ChatReplyResponse{Reply: reply, Message: tutor, Grounded: grounded}, nil
}

// personaFor renders the user's onboarding profile into the tutor prompt.
// Users who skipped onboarding get a neutral persona.
func (s *TutorService) personaFor(ctx context.Context, userID primitive.ObjectID) string {
	lookupCtx, cancel := utils.WithShortTimeout(ctx)
	defer cancel()

	var profile models.OnboardingProfile
	err := s.db.Collection("onboarding_profiles").FindOne(lookupCtx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		return ""
	}
	return profile.Persona()
}

func (s *TutorService) recentHistory(ctx context.Context, chatID primitive.ObjectID) ([]ai.TutorTurn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(historyWindow)
	cursor, err := s.db.Collection("chat_messages").Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	defer cursor.Close(ctx)

	var recent []models.ChatMessage
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}

	// Newest-first from the query; the prompt wants chronological order.
	turns := make([]ai.TutorTurn, len(recent))
	for i, msg := range recent {
		turns[len(recent)-1-i] = ai.TutorTurn{Role: msg.Role, Text: msg.Content}
	}
	return turns, nil
}
