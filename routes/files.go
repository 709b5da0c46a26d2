package routes

import (
	"io"
	"net/http"
	"strings"
	"time"

	"learning-platform-backend/internal/config"
	"learning-platform-backend/internal/queue"
	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/services"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupFileRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database, authMW *middleware.AuthMiddleware, indexing *services.IndexingService, queueClient *asynq.Client) {
	group := router.Group("/courses/:id")
	group.Use(authMW.RequireAuth())

	courses := db.Collection("courses")
	modules := db.Collection("course_modules")
	files := db.Collection("course_files")

	// Upload a file into a module. Documents trigger a synchronous index
	// rebuild; audio is stored with a pending transcript and handed to the
	// worker, which rebuilds once transcription finishes.
	group.POST("/modules/:moduleId/files", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		moduleID, err := primitive.ObjectIDFromHex(c.Param("moduleId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid module id", nil)
			return
		}
		if err := modules.FindOne(c.Request.Context(), bson.M{"_id": moduleID, "course_id": course.ID}).Err(); err != nil {
			utils.RespondWithNotFound(c, "Module not found")
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "File is required", nil)
			return
		}
		if fileHeader.Size > cfg.MaxFileSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error_code": "file_too_large",
				"message":    "File exceeds the maximum allowed size",
			})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if !typeAllowed(cfg.AllowedTypes, mimeType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error_code": "unsupported_type",
				"message":    "File type is not allowed",
				"details":    gin.H{"mime_type": mimeType},
			})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read file", nil)
			return
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read file", nil)
			return
		}

		kind := models.FileKindDocument
		if strings.HasPrefix(mimeType, "audio/") {
			kind = models.FileKindAudio
		}

		title := c.PostForm("title")
		if title == "" {
			title = fileHeader.Filename
		}

		now := time.Now()
		file := models.CourseFile{
			CourseID:  course.ID,
			ModuleID:  moduleID,
			Title:     title,
			Filename:  fileHeader.Filename,
			MimeType:  mimeType,
			Size:      fileHeader.Size,
			Kind:      kind,
			Data:      data,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if kind == models.FileKindAudio {
			file.TranscriptStatus = models.TranscriptPending
		}

		result, err := files.InsertOne(c.Request.Context(), file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to store file", nil)
			return
		}
		file.ID = result.InsertedID.(primitive.ObjectID)

		if kind == models.FileKindAudio {
			task, err := queue.NewTranscribeTask(file.ID.Hex(), course.ID.Hex())
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to queue transcription", nil)
				return
			}
			if _, err := queueClient.EnqueueContext(c.Request.Context(), task); err != nil {
				utils.RespondWithInternalError(c, "Failed to queue transcription", nil)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{
				"file":    file.Info(),
				"message": "transcription queued",
			})
			return
		}

		if _, err := indexing.RebuildCourse(c.Request.Context(), course.ID); err != nil {
			utils.RespondWithInternalError(c, "File stored but indexing failed", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"file": file.Info()})
	})

	group.GET("/files", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		cursor, err := files.Find(c.Request.Context(), bson.M{"course_id": course.ID},
			options.Find().SetSort(bson.M{"created_at": 1}).SetProjection(bson.M{"data": 0, "transcript": 0}))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list files", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		var stored []models.CourseFile
		if err := cursor.All(c.Request.Context(), &stored); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode files", nil)
			return
		}

		list := make([]models.FileInfo, 0, len(stored))
		for i := range stored {
			list = append(list, stored[i].Info())
		}

		c.JSON(http.StatusOK, gin.H{"files": list})
	})

	group.GET("/files/:fileId/download", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		fileID, err := primitive.ObjectIDFromHex(c.Param("fileId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid file id", nil)
			return
		}

		var file models.CourseFile
		if err := files.FindOne(c.Request.Context(), bson.M{"_id": fileID, "course_id": course.ID}).Decode(&file); err != nil {
			utils.RespondWithNotFound(c, "File not found")
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		c.Data(http.StatusOK, file.MimeType, file.Data)
	})

	// Replace a file's contents in place, then rebuild
	group.PUT("/files/:fileId", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		fileID, err := primitive.ObjectIDFromHex(c.Param("fileId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid file id", nil)
			return
		}

		var existing models.CourseFile
		if err := files.FindOne(c.Request.Context(), bson.M{"_id": fileID, "course_id": course.ID}).Decode(&existing); err != nil {
			utils.RespondWithNotFound(c, "File not found")
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "File is required", nil)
			return
		}
		if fileHeader.Size > cfg.MaxFileSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error_code": "file_too_large",
				"message":    "File exceeds the maximum allowed size",
			})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if !typeAllowed(cfg.AllowedTypes, mimeType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error_code": "unsupported_type",
				"message":    "File type is not allowed",
				"details":    gin.H{"mime_type": mimeType},
			})
			return
		}
		if strings.HasPrefix(mimeType, "audio/") != (existing.Kind == models.FileKindAudio) {
			utils.RespondWithBadRequest(c, "Replacement must be the same kind of file", nil)
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read file", nil)
			return
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read file", nil)
			return
		}

		set := bson.M{
			"filename":   fileHeader.Filename,
			"mime_type":  mimeType,
			"size":       fileHeader.Size,
			"data":       data,
			"updated_at": time.Now(),
		}
		unset := bson.M{}
		if existing.Kind == models.FileKindAudio {
			set["transcript_status"] = models.TranscriptPending
			unset["transcript"] = ""
			unset["transcript_error"] = ""
		}
		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}

		if _, err := files.UpdateByID(c.Request.Context(), fileID, update); err != nil {
			utils.RespondWithInternalError(c, "Failed to replace file", nil)
			return
		}

		if existing.Kind == models.FileKindAudio {
			task, err := queue.NewTranscribeTask(fileID.Hex(), course.ID.Hex())
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to queue transcription", nil)
				return
			}
			if _, err := queueClient.EnqueueContext(c.Request.Context(), task); err != nil {
				utils.RespondWithInternalError(c, "Failed to queue transcription", nil)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"message": "file replaced, transcription queued"})
			return
		}

		if _, err := indexing.RebuildCourse(c.Request.Context(), course.ID); err != nil {
			utils.RespondWithInternalError(c, "File replaced but indexing failed", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "file replaced"})
	})

	group.DELETE("/files/:fileId", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		fileID, err := primitive.ObjectIDFromHex(c.Param("fileId"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid file id", nil)
			return
		}

		result, err := files.DeleteOne(c.Request.Context(), bson.M{"_id": fileID, "course_id": course.ID})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete file", nil)
			return
		}
		if result.DeletedCount == 0 {
			utils.RespondWithNotFound(c, "File not found")
			return
		}

		if _, err := indexing.RebuildCourse(c.Request.Context(), course.ID); err != nil {
			utils.RespondWithInternalError(c, "File deleted but indexing failed", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
	})
}

func typeAllowed(allowed []string, mimeType string) bool {
	base := mimeType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	for _, t := range allowed {
		if strings.EqualFold(strings.TrimSpace(t), base) {
			return true
		}
	}
	return false
}
