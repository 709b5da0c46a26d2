package routes

import (
	"net/http"
	"strings"
	"time"

	"learning-platform-backend/internal/auth"
	"learning-platform-backend/internal/config"
	"learning-platform-backend/middleware"
	"learning-platform-backend/models"
	"learning-platform-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database, rdb *redis.Client, authMW *middleware.AuthMiddleware) {
	authGroup := router.Group("/auth")

	usersCollection := db.Collection("users")

	// Register endpoint
	authGroup.POST("/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		// Check if email already exists
		var existingUser models.User
		if err := usersCollection.FindOne(c.Request.Context(), bson.M{"email": email}).Decode(&existingUser); err == nil {
			utils.RespondWithConflict(c, "email_exists", "An account with this email already exists")
			return
		}

		// Hash password
		hashedPassword, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process password", nil)
			return
		}

		user := models.User{
			Email:        email,
			Name:         req.Name,
			PasswordHash: hashedPassword,
			Role:         "student",
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		result, err := usersCollection.InsertOne(c.Request.Context(), user)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create user", nil)
			return
		}
		userID := result.InsertedID.(primitive.ObjectID).Hex()

		tokenPair, err := auth.IssueTokenPair(userID, user.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		setAuthCookies(c, cfg, tokenPair)

		c.JSON(http.StatusCreated, models.TokenPairResponse{
			AccessToken:  tokenPair.AccessToken,
			RefreshToken: tokenPair.RefreshToken,
			AccessExp:    tokenPair.AccessExp,
			RefreshExp:   tokenPair.RefreshExp,
			User: models.UserInfo{
				ID:    userID,
				Email: email,
				Name:  req.Name,
				Role:  user.Role,
			},
		})
	})

	// Login endpoint
	authGroup.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		if err := usersCollection.FindOne(c.Request.Context(), bson.M{"email": email}).Decode(&user); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "invalid_credentials",
				"message":    "Invalid email or password",
			})
			return
		}

		if !utils.CheckPassword(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "invalid_credentials",
				"message":    "Invalid email or password",
			})
			return
		}

		tokenPair, err := auth.IssueTokenPair(user.ID.Hex(), user.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		setAuthCookies(c, cfg, tokenPair)

		c.JSON(http.StatusOK, models.TokenPairResponse{
			AccessToken:  tokenPair.AccessToken,
			RefreshToken: tokenPair.RefreshToken,
			AccessExp:    tokenPair.AccessExp,
			RefreshExp:   tokenPair.RefreshExp,
			User: models.UserInfo{
				ID:        user.ID.Hex(),
				Email:     user.Email,
				Name:      user.Name,
				Role:      user.Role,
				Onboarded: user.Onboarded,
			},
		})
	})

	// Refresh endpoint: rotate the refresh token, revoke the old one
	authGroup.POST("/refresh", func(c *gin.Context) {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if cookie, cerr := c.Cookie("refresh_token"); cerr == nil && cookie != "" {
				req.RefreshToken = cookie
			} else {
				utils.RespondWithBadRequest(c, "Refresh token required", nil)
				return
			}
		}

		claims, err := auth.ValidateRefreshToken(req.RefreshToken, rdb)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "refresh_token_expired",
				"message":    "Session expired, please log in again",
			})
			return
		}

		if err := auth.RevokeToken(claims.ID, true, rdb); err != nil {
			utils.RespondWithInternalError(c, "Failed to rotate tokens", nil)
			return
		}

		tokenPair, err := auth.IssueTokenPair(claims.UserID, claims.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		setAuthCookies(c, cfg, tokenPair)

		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokenPair.AccessToken,
			"refresh_token": tokenPair.RefreshToken,
			"access_exp":    tokenPair.AccessExp,
			"refresh_exp":   tokenPair.RefreshExp,
		})
	})

	// Logout: revoke every token for the user
	authGroup.POST("/logout", authMW.RequireAuth(), func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if err := auth.RevokeAllUserTokens(userID, rdb); err != nil {
			utils.RespondWithInternalError(c, "Failed to revoke tokens", nil)
			return
		}

		secure := cfg.GinMode == "release"
		c.SetCookie("access_token", "", -1, "/", "", secure, true)
		c.SetCookie("refresh_token", "", -1, "/", "", secure, true)

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})

	// Current user
	authGroup.GET("/me", authMW.RequireAuth(), func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user")
			return
		}

		var user models.User
		if err := usersCollection.FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
			utils.RespondWithNotFound(c, "User not found")
			return
		}

		c.JSON(http.StatusOK, models.UserInfo{
			ID:        user.ID.Hex(),
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Onboarded: user.Onboarded,
		})
	})
}

func setAuthCookies(c *gin.Context, cfg *config.Config, pair *auth.TokenPair) {
	secure := cfg.GinMode == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", pair.AccessToken, int(time.Until(pair.AccessExp).Seconds()), "/", "", secure, true)
	c.SetCookie("refresh_token", pair.RefreshToken, int(time.Until(pair.RefreshExp).Seconds()), "/", "", secure, true)
}
