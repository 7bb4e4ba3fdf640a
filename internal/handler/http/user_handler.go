package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/handler/http/middleware"
	"github.com/streamhive/account-service/internal/service"
)

// UserHandler handles authenticated account HTTP requests.
type UserHandler struct {
	logger      *zap.Logger
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(logger *zap.Logger, userService *service.UserService) *UserHandler {
	return &UserHandler{
		logger:      logger.Named("user_handler"),
		userService: userService,
	}
}

// CurrentUserDetails returns the authenticated account.
// GET /api/v1/user/user-details
func (h *UserHandler) CurrentUserDetails(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithError(c, h.logger, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	RespondWithSuccess(c, http.StatusOK, "Current user details", user.ToResponse())
}

// UpdatePassword replaces the account password.
// POST /api/v1/user/updatePassword
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithError(c, h.logger, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case domainErrors.IsValidation(err):
			RespondWithError(c, h.logger, http.StatusBadRequest, "Old and new password are required", err)
		case errors.Is(err, domainErrors.ErrInvalidCredentials):
			RespondWithError(c, h.logger, http.StatusUnauthorized, "Old password is incorrect", err)
		default:
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to update password", err)
		}
		return
	}

	RespondWithSuccess(c, http.StatusOK, "Password updated successfully", nil)
}

// UpdateDetails applies the provided profile fields.
// PUT /api/v1/user/update-details
func (h *UserHandler) UpdateDetails(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithError(c, h.logger, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		switch {
		case domainErrors.IsValidation(err):
			RespondWithError(c, h.logger, http.StatusBadRequest, "At least one of username, fullName or email is required", err)
		case domainErrors.IsConflict(err):
			RespondWithError(c, h.logger, http.StatusConflict, err.Error(), err)
		default:
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to update details", err)
		}
		return
	}

	RespondWithSuccess(c, http.StatusOK, "User details updated", updated.ToResponse())
}

// UpdateAvatar replaces the account avatar with the uploaded file.
// PUT /api/v1/user/update-avatar
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.userService.UpdateAvatar)
}

// UpdateCoverImage replaces the account cover image with the uploaded file.
// PUT /api/v1/user/update-coverimage
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.userService.UpdateCoverImage)
}

func (h *UserHandler) updateImage(
	c *gin.Context,
	field string,
	update func(ctx context.Context, id uuid.UUID, upload *service.ImageUpload) (*models.User, error),
) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondWithError(c, h.logger, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	upload, closeUpload, err := openFormImage(c, field)
	if err != nil {
		RespondWithError(c, h.logger, http.StatusBadRequest, "Image file is required", err)
		return
	}
	defer closeUpload()

	updated, err := update(c.Request.Context(), user.ID, upload)
	if err != nil {
		switch {
		case domainErrors.IsValidation(err):
			RespondWithError(c, h.logger, http.StatusBadRequest, "Image file is required", err)
		case errors.Is(err, domainErrors.ErrUploadFailed):
			RespondWithError(c, h.logger, http.StatusBadGateway, "Unable to upload image to media host", err)
		default:
			RespondWithError(c, h.logger, http.StatusInternalServerError, "Failed to update image", err)
		}
		return
	}

	RespondWithSuccess(c, http.StatusOK, "Image updated successfully", updated.ToResponse())
}
