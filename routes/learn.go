package routes

import (
	"errors"
	"net/http"

	"learning-platform-backend/internal/ai"
	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/services"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupLearnRoutes(router *gin.Engine, db *mongo.Database, authMW *middleware.AuthMiddleware, retrieval *services.RetrievalService) {
	group := router.Group("/courses/:id")
	group.Use(authMW.RequireAuth())

	courses := db.Collection("courses")

	// Query the course index. With bypass_generation the raw chunks come
	// back; otherwise the answer is generated from the retrieved context.
	group.POST("/query", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if !req.BypassGeneration {
			if err := ai.CheckUserQuota(c.Request.Context(), db, middleware.GetUserID(c), len(req.Query)); err != nil {
				if errors.Is(err, ai.ErrQuotaExceeded) {
					utils.RespondWithQuotaExceeded(c, "Daily generation quota exhausted")
					return
				}
				utils.RespondWithInternalError(c, "Failed to check quota", nil)
				return
			}
		}

		result, err := retrieval.Query(c.Request.Context(), course, req)
		if err != nil {
			utils.RespondWithInternalError(c, "Query failed", gin.H{"error": err.Error()})
			return
		}

		if req.BypassGeneration {
			c.JSON(http.StatusOK, gin.H{"chunks": result.Chunks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": result.Answer})
	})

	group.GET("/citations", func(c *gin.Context) {
		course := loadOwnedCourse(c, courses)
		if course == nil {
			return
		}

		citations, err := retrieval.Citations(c.Request.Context(), course)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load citations", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"citations": citations})
	})
}
