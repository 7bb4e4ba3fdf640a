package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/config"
	"github.com/streamhive/account-service/internal/domain/repository"
	"github.com/streamhive/account-service/internal/handler/http/middleware"
	"github.com/streamhive/account-service/internal/service"
	"github.com/streamhive/account-service/internal/utils/jwt"
)

// SetupRouter wires middleware, handlers and routes.
func SetupRouter(
	authService *service.AuthService,
	userService *service.UserService,
	tokenManager *jwt.TokenManager,
	userRepo repository.UserRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CorsMiddleware())

	authHandler := NewAuthHandler(logger, authService, cfg)
	userHandler := NewUserHandler(logger, userService)
	requireAuth := middleware.AuthMiddleware(tokenManager, userRepo, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		user := api.Group("/user")
		{
			// Public routes
			user.POST("/register", authHandler.Register)
			user.POST("/login", authHandler.Login)
			user.POST("/generate-accessToken", authHandler.RefreshToken)

			// Session-gated routes
			user.POST("/logout", requireAuth, authHandler.Logout)
			user.POST("/updatePassword", requireAuth, userHandler.UpdatePassword)
			user.GET("/user-details", requireAuth, userHandler.CurrentUserDetails)
			user.PUT("/update-details", requireAuth, userHandler.UpdateDetails)
			user.PUT("/update-avatar", requireAuth, userHandler.UpdateAvatar)
			user.PUT("/update-coverimage", requireAuth, userHandler.UpdateCoverImage)
		}
	}

	return router
}
