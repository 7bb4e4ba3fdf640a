package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/config"
	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/handler/http/middleware"
	"github.com/streamhive/account-service/internal/service"
)

// AuthHandler handles registration and session lifecycle HTTP requests.
type AuthHandler struct {
	logger      *zap.Logger
	authService *service.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger *zap.Logger, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		logger:      logger.Named("auth_handler"),
		authService: authService,
		cfg:         cfg,
	}
}

// Register handles user registration.
// POST /api/v1/user/register (multipart/form-data)
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	avatar, closeAvatar, err := openFormImage(c, "avatar")
	if err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Avatar file is required", err)
		return
	}
	defer closeAvatar()

	coverImage, closeCover, err := openFormImage(c, "coverImage")
	if err == nil {
		defer closeCover()
	}

	user, err := h.authService.Register(c.Request.Context(), req, avatar, coverImage)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrUsernameExists) || errors.Is(err, domainErrors.ErrEmailExists):
			RespondWithError(c, h.logger, http.StatusConflict, err.Error(), err)
		case domainErrors.IsValidation(err):
			RespondWithError(c, h.logger, http.StatusBadRequest, "Required field should not be empty", err)
		case errors.Is(err, domainErrors.ErrUploadFailed):
			RespondWithError(c, h.logger, http.StatusBadGateway, "Unable to upload avatar to media host", err)
		default:
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to register user", err)
		}
		return
	}

	RespondWithSuccess(c, http.StatusCreated, "User successfully registered", user.ToResponse())
}

// Login handles user login.
// POST /api/v1/user/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	tokenPair, user, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case domainErrors.IsValidation(err):
			RespondWithError(c, h.logger, http.StatusBadRequest, "Username or email is required", err)
		case errors.Is(err, domainErrors.ErrUserNotFound):
			RespondWithError(c, h.logger, http.StatusNotFound, "User not found, please register first", err)
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			RespondWithError(c, h.logger, http.StatusUnauthorized, "Invalid credentials", err)
		default:
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Login failed", err)
		}
		return
	}

	h.setSessionCookies(c, tokenPair)
	RespondWithSuccess(c, http.StatusOK, "User logged in successfully", gin.H{
		"user":   user.ToResponse(),
		"tokens": tokenPair,
	})
}

// Logout clears the stored refresh token and expires the session cookies.
// POST /api/v1/user/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithError(c, h.logger, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user.ID); err != nil {
		RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to log out", err)
		return
	}

	h.clearSessionCookies(c)
	RespondWithSuccess(c, http.StatusOK, "Successfully logged out", nil)
}

// RefreshToken rotates the access/refresh pair using the refresh token
// from the cookie or, failing that, the request body.
// POST /api/v1/user/generate-accessToken
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	if refreshToken == "" {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	tokenPair, user, err := h.authService.RefreshTokens(c.Request.Context(), refreshToken)
	if err != nil {
		if domainErrors.IsUnauthorized(err) {
			RespondWithError(c, h.logger, http.StatusUnauthorized, "Invalid or expired refresh token", err)
		} else {
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to refresh tokens", err)
		}
		return
	}

	h.setSessionCookies(c, tokenPair)
	RespondWithSuccess(c, http.StatusOK, "Access token refreshed", gin.H{
		"user":   user.ToResponse(),
		"tokens": tokenPair,
	})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, tokenPair *models.TokenPair) {
	secure := h.cfg.Server.SecureCookies
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokenPair.AccessToken,
		int(h.cfg.JWT.AccessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, tokenPair.RefreshToken,
		int(h.cfg.JWT.RefreshTokenTTL.Seconds()), "/", "", secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	secure := h.cfg.Server.SecureCookies
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// openFormImage opens a multipart file part as an ImageUpload. The caller
// must invoke the returned close function when the part was found.
func openFormImage(c *gin.Context, field string) (*service.ImageUpload, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}

	return &service.ImageUpload{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: formFileContentType(fileHeader),
	}, func() { file.Close() }, nil
}

func formFileContentType(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
