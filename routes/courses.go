package routes

import (
	"net/http"
	"time"

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

// loadOwnedCourse fetches the course from the :id param and enforces that the
// caller owns it (admins see everything). Writes the error response itself and
// returns nil on failure.
func loadOwnedCourse(c *gin.Context, courses *mongo.Collection) *models.Course {
	courseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.RespondWithBadRequest(c, "Invalid course id", nil)
		return nil
	}

	var course models.Course
	if err := courses.FindOne(c.Request.Context(), bson.M{"_id": courseID}).Decode(&course); err != nil {
		utils.RespondWithNotFound(c, "Course not found")
		return nil
	}

	if course.UserID.Hex() != middleware.GetUserID(c) && !middleware.IsAdmin(c) {
		utils.RespondWithForbidden(c, "You do not have access to this course")
		return nil
	}

	return &course
}

func SetupCourseRoutes(router *gin.Engine, db *mongo.Database, authMW *middleware.AuthMiddleware, outline *services.OutlineService) {
	group := router.Group("/courses")
	group.Use(authMW.RequireAuth())

	courses := db.Collection("courses")
	modules := db.Collection("course_modules")
	files := db.Collection("course_files")
	chats := db.Collection("chats")

	group.POST("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var req models.CreateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		course := models.Course{
			UserID:      userID,
			Title:       req.Title,
			Description: req.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		result, err := courses.InsertOne(c.Request.Context(), course)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create course", nil)
			return
		}
		course.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, course)
	})

	group.GET("", func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		opts := options.Find().
			SetSort(bson.M{"created_at": -1}).
			SetProjection(bson.M{"index_blob": 0, "metadata_blob": 0})
		cursor, err := courses.Find(c.Request.Context(), bson.M{"user_id": userID}, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list courses", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		list := []models.Course{}
		if err := cursor.All(c.Request.Context(), &list); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode courses", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"courses": list})
	})

	group.GET("/:id", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}
		c.JSON(http.StatusOK, course)
	})

	group.PATCH("/:id", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		var req struct {
			Title       string `json:"title" binding:"omitempty,min=1,max=128"`
			Description string `json:"description" binding:"omitempty,max=2000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		set := bson.M{"updated_at": time.Now()}
		if req.Title != "" {
			set["title"] = req.Title
		}
		if req.Description != "" {
			set["description"] = req.Description
		}

		if _, err := courses.UpdateByID(c.Request.Context(), course.ID, bson.M{"$set": set}); err != nil {
			utils.RespondWithInternalError(c, "Failed to update course", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "course updated"})
	})

	group.DELETE("/:id", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		ctx := c.Request.Context()
		if _, err := files.DeleteMany(ctx, bson.M{"course_id": course.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete course files", nil)
			return
		}
		if _, err := modules.DeleteMany(ctx, bson.M{"course_id": course.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete course modules", nil)
			return
		}
		// Detach chats instead of deleting the conversation history
		if _, err := chats.UpdateMany(ctx, bson.M{"course_id": course.ID}, bson.M{"$unset": bson.M{"course_id": ""}}); err != nil {
			utils.RespondWithInternalError(c, "Failed to detach chats", nil)
			return
		}
		if _, err := courses.DeleteOne(ctx, bson.M{"_id": course.ID}); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete course", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "course deleted"})
	})

	// Modules
	group.POST("/:id/modules", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		var req models.CreateModuleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		module := models.CourseModule{
			CourseID:  course.ID,
			Title:     req.Title,
			CreatedAt: time.Now(),
		}
		result, err := modules.InsertOne(c.Request.Context(), module)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create module", nil)
			return
		}
		module.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, module)
	})

	group.GET("/:id/modules", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		cursor, err := modules.Find(c.Request.Context(), bson.M{"course_id": course.ID},
			options.Find().SetSort(bson.M{"created_at": 1}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list modules", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		list := []models.CourseModule{}
		if err := cursor.All(c.Request.Context(), &list); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode modules", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"modules": list})
	})

	group.DELETE("/:id/modules/:moduleId", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		moduleID, err := primitive.ObjectIDFromHex(c.Param("moduleId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid module id", nil)
			return
		}

		count, err := files.CountDocuments(c.Request.Context(), bson.M{"module_id": moduleID})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to check module files", nil)
			return
		}
		if count > 0 {
			utils.RespondWithConflict(c, "module_not_empty", "Delete the module's files first")
			return
		}

		result, err := modules.DeleteOne(c.Request.Context(), bson.M{"_id": moduleID, "course_id": course.ID})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete module", nil)
			return
		}
		if result.DeletedCount == 0 {
			utils.RespondWithNotFound(c, "Module not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "module deleted"})
	})

	// Generate and persist a chapter outline for the course
	group.POST("/:id/outline", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		chapters, err := outline.Generate(c.Request.Context(), course)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate outline", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"outline": chapters})
	})
}
