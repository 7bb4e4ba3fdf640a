package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/domain/repository"
	"github.com/streamhive/account-service/internal/utils/jwt"
)

const (
	AuthHeaderKey  = "Authorization"
	AuthTypeBearer = "Bearer"

	// AccessTokenCookie is the cookie carrying the access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie is the cookie carrying the refresh token.
	RefreshTokenCookie = "refreshToken"

	// GinContextUserKey holds the resolved *models.User for downstream handlers.
	GinContextUserKey = "currentUser"
)

// AuthMiddleware gates protected routes. The access token is taken from the
// accessToken cookie or the Authorization Bearer header; the claims must
// resolve to an existing account, which is attached to the gin context.
func AuthMiddleware(tokenManager *jwt.TokenManager, userRepo repository.UserRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status_code": http.StatusUnauthorized, "success": false, "message": "Unauthorized: access token required",
			})
			return
		}

		claims, err := tokenManager.ValidateAccessToken(tokenString)
		if err != nil {
			logger.Warn("AuthMiddleware: invalid access token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status_code": http.StatusUnauthorized, "success": false, "message": "Unauthorized: invalid or expired token",
			})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status_code": http.StatusUnauthorized, "success": false, "message": "Unauthorized: invalid token subject",
			})
			return
		}

		user, err := userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			logger.Warn("AuthMiddleware: token resolved to no account", zap.String("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status_code": http.StatusUnauthorized, "success": false, "message": "Unauthorized: account not found",
			})
			return
		}

		c.Set(GinContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account resolved by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(GinContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthTypeBearer) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
