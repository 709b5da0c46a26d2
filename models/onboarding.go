package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OnboardingProfile captures the answers a student gives during onboarding.
// The tutor persona prompt is derived from these fields.
type OnboardingProfile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name          string             `bson:"name" json:"name"`
	Role          string             `bson:"role" json:"role"`
	Traits        []string           `bson:"traits" json:"traits"`
	LearningStyle string             `bson:"learning_style" json:"learning_style"`
	Depth         string             `bson:"depth" json:"depth"` // beginner, intermediate, advanced
	Topics        []string           `bson:"topics" json:"topics"`
	Interests     []string           `bson:"interests" json:"interests"`
	Schedule      string             `bson:"schedule" json:"schedule"`
	WantQuizzes   bool               `bson:"want_quizzes" json:"want_quizzes"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

type OnboardingRequest struct {
	Name          string   `json:"name" binding:"required,min=2,max=100"`
	Role          string   `json:"role" binding:"omitempty,max=64"`
	Traits        []string `json:"traits"`
	LearningStyle string   `json:"learning_style" binding:"omitempty,max=64"`
	Depth         string   `json:"depth" binding:"omitempty,oneof=beginner intermediate advanced"`
	Topics        []string `json:"topics"`
	Interests     []string `json:"interests"`
	Schedule      string   `json:"schedule" binding:"omitempty,max=128"`
	WantQuizzes   bool     `json:"want_quizzes"`
}

// Persona renders the profile into the system-prompt fragment the tutor chat
// sends with every request.
func (p *OnboardingProfile) Persona() string {
	var b strings.Builder
	fmt.Fprintf(&b, "The student's name is %s.", p.Name)
	switch p.Depth {
	case "beginner":
		b.WriteString(" Explain concepts from first principles and avoid unexplained jargon.")
	case "intermediate":
		b.WriteString(" Assume working familiarity with the basics and focus on connections between ideas.")
	case "advanced":
		b.WriteString(" Be concise and technical; skip introductory material.")
	}
	if p.LearningStyle != "" {
		fmt.Fprintf(&b, " They prefer a %s learning style.", p.LearningStyle)
	}
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, " They describe themselves as: %s.", strings.Join(p.Traits, ", "))
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, " Relate examples to their interests where natural: %s.", strings.Join(p.Interests, ", "))
	}
	return b.String()
}
