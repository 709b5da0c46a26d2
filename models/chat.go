package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is one tutoring conversation. CourseID is optional; when set, replies
// are grounded on the course's retrieval index.
type Chat struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	CourseID  *primitive.ObjectID `bson:"course_id,omitempty" json:"course_id,omitempty"`
	Title     string              `bson:"title" json:"title"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"` // student, tutor
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

const (
	ChatRoleStudent = "student"
	ChatRoleTutor   = "tutor"
)

type CreateChatRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=200"`
	CourseID string `json:"course_id" binding:"omitempty,hexadecimal,len=24"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=8000"`
}

type ChatReplyResponse struct {
	Reply    string      `json:"reply"`
	Message  ChatMessage `json:"message"`
	Grounded bool        `json:"grounded"`
}
