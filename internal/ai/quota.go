package ai

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserGeminiQuota represents per-user Gemini API quotas
type UserGeminiQuota struct {
	UserID          string    `bson:"user_id"`
	DailyTokenLimit int       `bson:"daily_token_limit"`
	TokensUsedToday int       `bson:"tokens_used_today"`
	LastResetDate   time.Time `bson:"last_reset_date"`
	RequestsToday   int       `bson:"requests_today"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

// ErrQuotaExceeded is returned when a user has used up their daily tokens.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// CheckUserQuota checks if the user can consume estimated tokens and records
// the consumption when they can.
func CheckUserQuota(ctx context.Context, db *mongo.Database, userID string, estimatedTokens int) error {
	col := db.Collection("gemini_quotas")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Reset if new day
	_, err := col.UpdateOne(ctx, bson.M{
		"user_id":         userID,
		"last_reset_date": bson.M{"$lt": today},
	}, bson.M{
		"$set": bson.M{
			"tokens_used_today": 0,
			"requests_today":    0,
			"last_reset_date":   today,
			"updated_at":        now,
		},
	})
	if err != nil {
		return err
	}

	var quota UserGeminiQuota
	err = col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&quota)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Create new quota for this user
			quota = UserGeminiQuota{
				UserID:          userID,
				DailyTokenLimit: 100000, // Default limit
				TokensUsedToday: 0,
				RequestsToday:   0,
				LastResetDate:   today,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if _, err := col.InsertOne(ctx, quota); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	if quota.TokensUsedToday+estimatedTokens > quota.DailyTokenLimit {
		return ErrQuotaExceeded
	}

	// Increment atomically
	_, err = col.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc": bson.M{
				"tokens_used_today": estimatedTokens,
				"requests_today":    1,
			},
			"$set": bson.M{
				"updated_at": now,
			},
		},
	)

	return err
}

// GetUserQuotaStatus returns current quota status for a user
func GetUserQuotaStatus(ctx context.Context, db *mongo.Database, userID string) (*UserGeminiQuota, error) {
	col := db.Collection("gemini_quotas")

	var quota UserGeminiQuota
	err := col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&quota)
	if err != nil {
		return nil, err
	}

	return &quota, nil
}

// SetUserQuotaLimit sets daily token limit for a user
func SetUserQuotaLimit(ctx context.Context, db *mongo.Database, userID string, dailyLimit int) error {
	col := db.Collection("gemini_quotas")

	now := time.Now()
	_, err := col.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{
				"daily_token_limit": dailyLimit,
				"updated_at":        now,
			},
		},
		options.Update().SetUpsert(true),
	)

	return err
}
