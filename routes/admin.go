package routes

import (
	"net/http"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupAdminRoutes(router *gin.Engine, db *mongo.Database, authMW *middleware.AuthMiddleware, roleMW *middleware.RoleMiddleware) {
	group := router.Group("/admin")
	group.Use(authMW.RequireAuth(), roleMW.AdminGuard())

	users := db.Collection("users")

	group.GET("/users", func(c *gin.Context) {
		cursor, err := users.Find(c.Request.Context(), bson.M{},
			options.Find().SetSort(bson.M{"created_at": -1}).SetProjection(bson.M{"password_hash": 0}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list users", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		var stored []models.User
		if err := cursor.All(c.Request.Context(), &stored); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode users", nil)
			return
		}

		list := make([]models.UserInfo, 0, len(stored))
		for _, u := range stored {
			list = append(list, models.UserInfo{
				ID:        u.ID.Hex(),
				Email:     u.Email,
				Name:      u.Name,
				Role:      u.Role,
				Onboarded: u.Onboarded,
			})
		}

		c.JSON(http.StatusOK, gin.H{"users": list})
	})

	group.GET("/users/:userId/quota", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid user id", nil)
			return
		}

		quota, err := ai.GetUserQuotaStatus(c.Request.Context(), db, userID.Hex())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load quota", nil)
			return
		}

		c.JSON(http.StatusOK, quota)
	})

	group.PUT("/users/:userId/quota", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid user id", nil)
			return
		}

		var req struct {
			DailyLimit int `json:"daily_limit" binding:"required,min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if err := ai.SetUserQuotaLimit(c.Request.Context(), db, userID.Hex(), req.DailyLimit); err != nil {
			utils.RespondWithInternalError(c, "Failed to update quota", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "quota updated"})
	})
}
