package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File kinds. Audio files carry a transcript once the worker has processed
// them; the transcript is what gets indexed.
const (
	FileKindDocument = "document"
	FileKindAudio    = "audio"
)

// Transcription status for audio files.
const (
	TranscriptPending   = "pending"
	TranscriptCompleted = "completed"
	TranscriptFailed    = "failed"
)

// CourseFile is one uploaded file. CourseID is denormalized from the module
// so a rebuild can gather a course's files in one query.
type CourseFile struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID primitive.ObjectID `bson:"course_id" json:"course_id"`
	ModuleID primitive.ObjectID `bson:"module_id" json:"module_id"`
	Title    string             `bson:"title" json:"title"`
	Filename string             `bson:"filename" json:"filename"`
	MimeType string             `bson:"mime_type" json:"mime_type"`
	Size     int64              `bson:"size" json:"size"`
	Kind     string             `bson:"kind" json:"kind"`
	Data     []byte             `bson:"data" json:"-"`

	Transcript       string `bson:"transcript,omitempty" json:"-"`
	TranscriptStatus string `bson:"transcript_status,omitempty" json:"transcript_status,omitempty"`
	TranscriptError  string `bson:"transcript_error,omitempty" json:"transcript_error,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FileInfo is the list/detail projection without the raw bytes.
type FileInfo struct {
	ID               string    `json:"id"`
	CourseID         string    `json:"course_id"`
	ModuleID         string    `json:"module_id"`
	Title            string    `json:"title"`
	Filename         string    `json:"filename"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	Kind             string    `json:"kind"`
	TranscriptStatus string    `json:"transcript_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (f *CourseFile) Info() FileInfo {
	return FileInfo{
		ID:               f.ID.Hex(),
		CourseID:         f.CourseID.Hex(),
		ModuleID:         f.ModuleID.Hex(),
		Title:            f.Title,
		Filename:         f.Filename,
		MimeType:         f.MimeType,
		Size:             f.Size,
		Kind:             f.Kind,
		TranscriptStatus: f.TranscriptStatus,
		CreatedAt:        f.CreatedAt,
	}
}
