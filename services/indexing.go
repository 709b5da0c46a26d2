package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"learning-platform-backend/internal/rag"
	"learning-platform-backend/internal/telemetry"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"
)

// IndexingService rebuilds a course's retrieval index from its current file
// set and persists the compressed blob pair on the course document. Rebuilds
// are synchronous and all-or-nothing: a failed rebuild leaves the previously
// stored pair untouched.
type IndexingService struct {
	db      *mongo.Database
	builder *rag.Builder
	metrics *telemetry.Metrics
	model   string
	log     *slog.Logger
}

func NewIndexingService(db *mongo.Database, builder *rag.Builder, metrics *telemetry.Metrics, embeddingsModel string, log *slog.Logger) *IndexingService {
	if log == nil {
		log = slog.Default()
	}
	return &IndexingService{
		db:      db,
		builder: builder,
		metrics: metrics,
		model:   embeddingsModel,
		log:     log,
	}
}

// RebuildCourse gathers the course's indexable files, runs the full pipeline
// and atomically replaces the stored blob pair in one document update.
func (s *IndexingService) RebuildCourse(ctx context.Context, courseID primitive.ObjectID) (*rag.BuildResult, error) {
	files, err := s.gatherFiles(ctx, courseID)
	if err != nil {
		return nil, err
	}

	result, err := s.builder.Rebuild(ctx, files)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordIndexRebuild(0, 0, "failed")
		}
		return nil, err
	}

	indexBlob, err := utils.CompressData(result.IndexBytes, utils.CompressionGzip)
	if err != nil {
		return nil, fmt.Errorf("compress index blob: %w", err)
	}
	metadataBlob, err := utils.CompressData(result.MetadataBytes, utils.CompressionGzip)
	if err != nil {
		return nil, fmt.Errorf("compress metadata blob: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"index_blob":    indexBlob,
			"metadata_blob": metadataBlob,
			"index_info": models.IndexInfo{
				Chunks:    result.Chunks,
				Dimension: result.Dimension,
				Model:     s.model,
				BuiltAt:   time.Now(),
			},
			"updated_at": time.Now(),
		},
	}
	storeCtx, cancel := utils.WithTimeout(ctx)
	defer cancel()
	res, err := s.db.Collection("courses").UpdateByID(storeCtx, courseID, update)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDatabaseOperation("update", "courses", false)
		}
		return nil, fmt.Errorf("store blob pair: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}

	if s.metrics != nil {
		s.metrics.RecordDatabaseOperation("update", "courses", true)
		s.metrics.RecordIndexRebuild(result.Duration.Seconds(), result.Chunks, "completed")
	}
	s.log.Info("course index rebuilt",
		"course_id", courseID.Hex(),
		"files", len(files),
		"chunks", result.Chunks,
		"dimension", result.Dimension,
		"took", result.Duration)
	return result, nil
}

// gatherFiles loads every indexable file of the course: document uploads as
// raw bytes, audio uploads as their transcript once transcription completed.
// Audio without a transcript is skipped, not an error.
func (s *IndexingService) gatherFiles(ctx context.Context, courseID primitive.ObjectID) ([]rag.SourceFile, error) {
	cursor, err := s.db.Collection("course_files").Find(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return nil, fmt.Errorf("list course files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []rag.SourceFile
	for cursor.Next(ctx) {
		var f models.CourseFile
		if err := cursor.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode course file: %w", err)
		}
		switch f.Kind {
		case models.FileKindAudio:
			if f.TranscriptStatus != models.TranscriptCompleted || f.Transcript == "" {
				continue
			}
			files = append(files, rag.SourceFile{
				ID:       f.ID.Hex(),
				Filename: f.Filename + ".txt",
				Data:     []byte(f.Transcript),
			})
		default:
			files = append(files, rag.SourceFile{
				ID:       f.ID.Hex(),
				Filename: f.Filename,
				Data:     f.Data,
			})
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate course files: %w", err)
	}
	return files, nil
}

// LoadPair returns the decompressed blob pair for a course. A course that was
// never indexed returns two empty slices; the retriever treats that as a
// corrupt pair, so callers should check Indexed first.
func (s *IndexingService) LoadPair(ctx context.Context, courseID primitive.ObjectID) (indexBytes, metadataBytes []byte, err error) {
	var course models.Course
	err = s.db.Collection("courses").FindOne(ctx, bson.M{"_id": courseID}).Decode(&course)
	if err != nil {
		return nil, nil, err
	}
	return decompressPair(course.IndexBlob, course.MetadataBlob)
}

func decompressPair(indexBlob, metadataBlob []byte) ([]byte, []byte, error) {
	indexBytes, err := utils.DecompressData(indexBlob, utils.CompressionGzip)
	if err != nil {
		return nil, nil, fmt.Errorf("decompress index blob: %w", err)
	}
	metadataBytes, err := utils.DecompressData(metadataBlob, utils.CompressionGzip)
	if err != nil {
		return nil, nil, fmt.Errorf("decompress metadata blob: %w", err)
	}
	return indexBytes, metadataBytes, nil
}

// Indexed reports whether the course has a stored blob pair.
func Indexed(course *models.Course) bool {
	return course.IndexInfo != nil && len(course.IndexBlob) > 0
}
