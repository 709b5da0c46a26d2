package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learning-platform-backend/internal/ai"
)

// Course owns the serialized retrieval index for its files. The two blobs are
// stored gzip-compressed in the course document itself and replaced together
// in a single update whenever the file set changes.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	IndexBlob    []byte     `bson:"index_blob,omitempty" json:"-"`
	MetadataBlob []byte     `bson:"metadata_blob,omitempty" json:"-"`
	IndexInfo    *IndexInfo `bson:"index_info,omitempty" json:"index_info,omitempty"`

	Outline []ai.ChapterOutline `bson:"outline,omitempty" json:"outline,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IndexInfo summarizes the last successful rebuild.
type IndexInfo struct {
	Chunks    int       `bson:"chunks" json:"chunks"`
	Dimension int       `bson:"dimension" json:"dimension"`
	Model     string    `bson:"model" json:"model"`
	BuiltAt   time.Time `bson:"built_at" json:"built_at"`
}

// CourseModule groups files inside a course.
type CourseModule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID  primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title     string             `bson:"title" json:"title"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

type CreateModuleRequest struct {
	Title string `json:"title" binding:"required,min=1,max=128"`
}

// QueryRequest is the body of the course query endpoint.
type QueryRequest struct {
	Query            string `json:"query" binding:"required,min=1"`
	BypassGeneration bool   `json:"bypass_generation"`
	TopK             int    `json:"top_k" binding:"omitempty,min=1,max=50"`
}
