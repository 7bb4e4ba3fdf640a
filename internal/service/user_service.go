package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/domain/repository"
	domainService "github.com/streamhive/account-service/internal/domain/service"
	eventModels "github.com/streamhive/account-service/internal/events/models"
)

// UserService implements the authenticated account mutations: password
// change, profile updates and avatar/cover replacement.
type UserService struct {
	logger          *zap.Logger
	userRepo        repository.UserRepository
	passwordService domainService.PasswordService
	mediaStorage    domainService.MediaStorage
	publisher       domainService.EventPublisher
}

// NewUserService creates a new UserService.
func NewUserService(
	logger *zap.Logger,
	userRepo repository.UserRepository,
	passwordService domainService.PasswordService,
	mediaStorage domainService.MediaStorage,
	publisher domainService.EventPublisher,
) *UserService {
	return &UserService{
		logger:          logger.Named("user_service"),
		userRepo:        userRepo,
		passwordService: passwordService,
		mediaStorage:    mediaStorage,
		publisher:       publisher,
	}
}

// ChangePassword verifies the old password and replaces the stored hash.
// The stored refresh token is left in place: the account's live session
// survives a password change.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return domainErrors.ErrValidation
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	match, err := s.passwordService.CheckPasswordHash(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return domainErrors.ErrInvalidCredentials
	}

	newHash, err := s.passwordService.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	s.publish(ctx, eventModels.AccountPasswordChangedV1, userID.String(), eventModels.AccountPasswordChangedPayload{
		UserID:    userID.String(),
		ChangedAt: time.Now().UTC(),
	})
	return nil
}

// UpdateProfile applies the provided profile fields only. Provided fields
// must be non-empty after normalization.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	if req.IsEmpty() {
		return nil, fmt.Errorf("at least one of username, fullName or email is required: %w", domainErrors.ErrValidation)
	}

	var updatedFields []string
	if req.Username != nil {
		username := models.NormalizeUsername(*req.Username)
		if username == "" {
			return nil, domainErrors.ErrValidation
		}
		req.Username = &username
		updatedFields = append(updatedFields, "username")
	}
	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, domainErrors.ErrValidation
		}
		req.FullName = &fullName
		updatedFields = append(updatedFields, "full_name")
	}
	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		if email == "" {
			return nil, domainErrors.ErrValidation
		}
		req.Email = &email
		updatedFields = append(updatedFields, "email")
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventModels.AccountProfileUpdatedV1, userID.String(), eventModels.AccountProfileUpdatedPayload{
		UserID:        userID.String(),
		UpdatedFields: updatedFields,
	})
	return user, nil
}

// UpdateAvatar uploads the new avatar to the media host and persists the
// returned URL, replacing the previous reference. The previous hosted
// asset is not deleted.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload *ImageUpload) (*models.User, error) {
	return s.updateImage(ctx, userID, "avatar", upload, s.userRepo.UpdateAvatarURL)
}

// UpdateCoverImage uploads the new cover image and persists the returned URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, upload *ImageUpload) (*models.User, error) {
	return s.updateImage(ctx, userID, "cover", upload, s.userRepo.UpdateCoverImageURL)
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID uuid.UUID,
	kind string,
	upload *ImageUpload,
	persist func(context.Context, uuid.UUID, string) (*models.User, error),
) (*models.User, error) {
	if upload == nil {
		return nil, fmt.Errorf("%s file is required: %w", kind, domainErrors.ErrValidation)
	}

	url, err := s.mediaStorage.Upload(ctx, kind, upload.Reader, upload.Size, upload.ContentType)
	if err != nil || url == "" {
		s.logger.Error("Image upload failed", zap.String("kind", kind), zap.Error(err))
		return nil, domainErrors.ErrUploadFailed
	}

	return persist(ctx, userID, url)
}

func (s *UserService) publish(ctx context.Context, eventType, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, subject, payload); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
