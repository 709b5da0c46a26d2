package routes

import (
	"errors"
	"net/http"
	"time"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/services"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupChatRoutes(router *gin.Engine, db *mongo.Database, authMW *middleware.AuthMiddleware, tutor *services.TutorService, export *services.ExportService) {
	group := router.Group("/chats")
	group.Use(authMW.RequireAuth())

	chats := db.Collection("chats")
	messages := db.Collection("chat_messages")
	courses := db.Collection("courses")

	loadOwnedChat := func(c *gin.Context) *models.Chat {
		chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid chat id", nil)
			return nil
		}

		var chat models.Chat
		if err := chats.FindOne(c.Request.Context(), bson.M{"_id": chatID}).Decode(&chat); err != nil {
			utils.RespondWithNotFound(c, "Chat not found")
			return nil
		}
		if chat.UserID.Hex() != middleware.GetUserID(c) {
			utils.RespondWithForbidden(c, "You do not have access to this chat")
			return nil
		}
		return &chat
	}

	group.POST("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var req models.CreateChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		chat := models.Chat{
			UserID:    userID,
			Title:     req.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if req.CourseID != "" {
			courseID, err := primitive.ObjectIDFromHex(req.CourseID)
			if err != nil {
				utils.RespondWithBadRequest(c, "Invalid course id", nil)
				return
			}
			var course models.Course
			if err := courses.FindOne(c.Request.Context(), bson.M{"_id": courseID},
				options.FindOne().SetProjection(bson.M{"user_id": 1})).Decode(&course); err != nil {
				utils.RespondWithNotFound(c, "Course not found")
				return
			}
			if course.UserID != userID {
				utils.RespondWithForbidden(c, "You do not have access to this course")
				return
			}
			chat.CourseID = &courseID
		}

		result, err := chats.InsertOne(c.Request.Context(), chat)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create chat", nil)
			return
		}
		chat.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, chat)
	})

	group.GET("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		cursor, err := chats.Find(c.Request.Context(), bson.M{"user_id": userID},
			options.Find().SetSort(bson.M{"updated_at": -1}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list chats", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		list := []models.Chat{}
		if err := cursor.All(c.Request.Context(), &list); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode chats", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"chats": list})
	})

	group.GET("/:chatId/messages", func(c *gin.Context) {
		chat := loadOwnedChat(c)
		if chat == nil {
			return
		}

		cursor, err := messages.Find(c.Request.Context(), bson.M{"chat_id": chat.ID},
			options.Find().SetSort(bson.M{"timestamp": 1}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list messages", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		list := []models.ChatMessage{}
		if err := cursor.All(c.Request.Context(), &list); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode messages", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": list})
	})

	group.POST("/:chatId/messages", func(c *gin.Context) {
		chat := loadOwnedChat(c)
		if chat == nil {
			return
		}

		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if err := ai.CheckUserQuota(c.Request.Context(), db, userID.Hex(), len(req.Content)); err != nil {
			if errors.Is(err, ai.ErrQuotaExceeded) {
				utils.RespondWithQuotaExceeded(c, "Daily generation quota exhausted")
				return
			}
			utils.RespondWithInternalError(c, "Failed to check quota", nil)
			return
		}

		reply, err := tutor.Reply(c.Request.Context(), chat, userID, req.Content)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate reply", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, reply)
	})

	group.GET("/:chatId/export", func(c *gin.Context) {
		chat := loadOwnedChat(c)
		if chat == nil {
			return
		}

		format := c.DefaultQuery("format", services.ExportFormatJSON)
		file, err := export.ExportChat(c.Request.Context(), chat, format)
		if err != nil {
			utils.RespondWithBadRequest(c, "Export failed", gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		c.Data(http.StatusOK, file.ContentType, file.Data)
	})

	group.DELETE("/:chatId", func(c *gin.Context) {
		chat := loadOwnedChat(c)
		if chat == nil {
			return
		}

		ctx := c.Request.Context()
		if _, err := messages.DeleteMany(ctx, bson.M{"chat_id": chat.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete messages", nil)
			return
		}
		if _, err := chats.DeleteOne(ctx, bson.M{"_id": chat.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete chat", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "chat deleted"})
	})
}
