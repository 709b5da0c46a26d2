package routes

import (
	"net/http"
	"time"

	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupOnboardingRoutes(router *gin.Engine, db *mongo.Database, authMW *middleware.AuthMiddleware) {
	group := router.Group("/onboarding")
	group.Use(authMW.RequireAuth())

	profiles := db.Collection("onboarding_profiles")
	users := db.Collection("users")

	// Submit onboarding answers. Upserts so re-submitting replaces the
	// previous profile instead of failing on the unique user_id index.
	group.POST("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var req models.OnboardingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		update := bson.M{
			"$set": bson.M{
				"name":           req.Name,
				"role":           req.Role,
				"traits":         req.Traits,
				"learning_style": req.LearningStyle,
				"depth":          req.Depth,
				"topics":         req.Topics,
				"interests":      req.Interests,
				"schedule":       req.Schedule,
				"want_quizzes":   req.WantQuizzes,
				"updated_at":     now,
			},
			"$setOnInsert": bson.M{
				"user_id":    userID,
				"created_at": now,
			},
		}

		if _, err := profiles.UpdateOne(c.Request.Context(), bson.M{"user_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
			utils.RespondWithInternalError(c, "Failed to save profile", nil)
			return
		}

		if _, err := users.UpdateByID(c.Request.Context(), userID, bson.M{"$set": bson.M{"onboarded": true, "updated_at": now}}); err != nil {
			utils.RespondWithInternalError(c, "Failed to update user", nil)
			return
		}

		var profile models.OnboardingProfile
		if err := profiles.FindOne(c.Request.Context(), bson.M{"user_id": userID}).Decode(&profile); err != nil {
			utils.RespondWithInternalError(c, "Failed to load profile", nil)
			return
		}

		c.JSON(http.StatusCreated, profile)
	})

	group.GET("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var profile models.OnboardingProfile
		if err := profiles.FindOne(c.Request.Context(), bson.M{"user_id": userID}).Decode(&profile); err != nil {
			utils.RespondWithNotFound(c, "No onboarding profile")
			return
		}

		c.JSON(http.StatusOK, profile)
	})

	// Partial update of individual answers
	group.PATCH("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var req map[string]interface{}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		allowed := map[string]bool{
			"name": true, "role": true, "traits": true, "learning_style": true,
			"depth": true, "topics": true, "interests": true, "schedule": true,
			"want_quizzes": true,
		}
		set := bson.M{}
		for key, value := range req {
			if allowed[key] {
				set[key] = value
			}
		}
		if len(set) == 0 {
			utils.RespondWithBadRequest(c, "No updatable fields in request", nil)
			return
		}
		if depth, ok := set["depth"].(string); ok {
			if depth != "beginner" && depth != "intermediate" && depth != "advanced" {
				utils.RespondWithBadRequest(c, "depth must be beginner, intermediate or advanced", nil)
				return
			}
		}
		set["updated_at"] = time.Now()

		result, err := profiles.UpdateOne(c.Request.Context(), bson.M{"user_id": userID}, bson.M{"$set": set})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to update profile", nil)
			return
		}
		if result.MatchedCount == 0 {
			utils.RespondWithNotFound(c, "No onboarding profile")
			return
		}

		var profile models.OnboardingProfile
		if err := profiles.FindOne(c.Request.Context(), bson.M{"user_id": userID}).Decode(&profile); err != nil {
			utils.RespondWithInternalError(c, "Failed to load profile", nil)
			return
		}

		c.JSON(http.StatusOK, profile)
	})

	group.DELETE("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		result, err := profiles.DeleteOne(c.Request.Context(), bson.M{"user_id": userID})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete profile", nil)
			return
		}
		if result.DeletedCount == 0 {
			utils.RespondWithNotFound(c, "No onboarding profile")
			return
		}

		if _, err := users.UpdateByID(c.Request.Context(), userID, bson.M{"$set": bson.M{"onboarded": false, "updated_at": time.Now()}}); err != nil {
			utils.RespondWithInternalError(c, "Failed to update user", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "profile deleted"})
	})
}
