package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/models"
	"learning-platform-backend/services"
)

const (
	TaskTranscribeAudio = "audio:transcribe"
)

type TranscribePayload struct {
	FileID   string `json:"file_id"`
	CourseID string `json:"course_id"`
}

// NewTranscribeTask enqueues transcription of an uploaded audio file.
// Transcription is the one pipeline step that runs in the background: it can
// take minutes, and the course index picks the transcript up on the rebuild
// that follows.
func NewTranscribeTask(fileID, courseID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TranscribePayload{
		FileID:   fileID,
		CourseID: courseID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTranscribeAudio,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Task handlers
type TaskProcessor struct {
	db       *mongo.Database
	gemini   *ai.GeminiClient
	indexing *services.IndexingService
	log      *slog.Logger
}

func NewTaskProcessor(db *mongo.Database, gemini *ai.GeminiClient, indexing *services.IndexingService, log *slog.Logger) *TaskProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &TaskProcessor{
		db:       db,
		gemini:   gemini,
		indexing: indexing,
		log:      log,
	}
}

// TranscribeAudio transcribes one audio file and rebuilds the course index so
// the transcript becomes searchable.
func (p *TaskProcessor) TranscribeAudio(ctx context.Context, t *asynq.Task) error {
	var payload TranscribePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	fileID, err := primitive.ObjectIDFromHex(payload.FileID)
	if err != nil {
		return fmt.Errorf("bad file id %q: %w", payload.FileID, asynq.SkipRetry)
	}
	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		return fmt.Errorf("bad course id %q: %w", payload.CourseID, asynq.SkipRetry)
	}

	p.log.Info("transcribing audio", "file_id", payload.FileID, "course_id", payload.CourseID)

	files := p.db.Collection("course_files")
	var file models.CourseFile
	if err := files.FindOne(ctx, bson.M{"_id": fileID}).Decode(&file); err != nil {
		if err == mongo.ErrNoDocuments {
			// File deleted between enqueue and processing.
			return nil
		}
		return err
	}
	if file.Kind != models.FileKindAudio {
		return fmt.Errorf("file %s is not audio: %w", payload.FileID, asynq.SkipRetry)
	}

	transcript, err := p.gemini.Transcribe(ctx, file.Data, file.MimeType)
	if err != nil {
		p.setTranscriptStatus(ctx, fileID, models.TranscriptFailed, err.Error())
		return err // Will retry
	}

	_, err = files.UpdateByID(ctx, fileID, bson.M{
		"$set": bson.M{
			"transcript":        transcript,
			"transcript_status": models.TranscriptCompleted,
			"transcript_error":  "",
			"updated_at":        time.Now(),
		},
	})
	if err != nil {
		return err
	}

	if _, err := p.indexing.RebuildCourse(ctx, courseID); err != nil {
		return fmt.Errorf("rebuild after transcription: %w", err)
	}

	p.log.Info("audio transcribed and indexed", "file_id", payload.FileID, "chars", len(transcript))
	return nil
}

func (p *TaskProcessor) setTranscriptStatus(ctx context.Context, fileID primitive.ObjectID, status, errMsg string) {
	_, err := p.db.Collection("course_files").UpdateByID(ctx, fileID, bson.M{
		"$set": bson.M{
			"transcript_status": status,
			"transcript_error":  errMsg,
			"updated_at":        time.Now(),
		},
	})
	if err != nil {
		p.log.Warn("failed to update transcript status", "file_id", fileID.Hex(), "error", err)
	}
}
