package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/domain/repository"
	domainService "github.com/streamhive/account-service/internal/domain/service"
	eventModels "github.com/streamhive/account-service/internal/events/models"
	"github.com/streamhive/account-service/internal/utils/jwt"
)

// ImageUpload carries one multipart image part on its way to the media host.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// AuthService implements the account and session lifecycle: registration,
// login, logout and refresh-token rotation.
type AuthService struct {
	logger          *zap.Logger
	userRepo        repository.UserRepository
	passwordService domainService.PasswordService
	mediaStorage    domainService.MediaStorage
	tokenManager    *jwt.TokenManager
	publisher       domainService.EventPublisher
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	logger *zap.Logger,
	userRepo repository.UserRepository,
	passwordService domainService.PasswordService,
	mediaStorage domainService.MediaStorage,
	tokenManager *jwt.TokenManager,
	publisher domainService.EventPublisher,
) *AuthService {
	return &AuthService{
		logger:          logger.Named("auth_service"),
		userRepo:        userRepo,
		passwordService: passwordService,
		mediaStorage:    mediaStorage,
		tokenManager:    tokenManager,
		publisher:       publisher,
	}
}

// Register validates the payload, uploads the avatar (required) and cover
// image (optional) to the media host, hashes the password and persists the
// account. The returned user is the created entity; no read-back is
// performed, so a successful insert can never be reported as a failure.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, avatar, coverImage *ImageUpload) (*models.User, error) {
	username := models.NormalizeUsername(req.Username)
	email := models.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(req.Password) == "" {
		return nil, domainErrors.ErrValidation
	}
	if avatar == nil {
		return nil, fmt.Errorf("avatar file is required: %w", domainErrors.ErrValidation)
	}

	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, domainErrors.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		if existing.Username == username {
			return nil, domainErrors.ErrUsernameExists
		}
		return nil, domainErrors.ErrEmailExists
	}

	avatarURL, err := s.mediaStorage.Upload(ctx, "avatar", avatar.Reader, avatar.Size, avatar.ContentType)
	if err != nil || avatarURL == "" {
		s.logger.Error("Register: avatar upload failed", zap.Error(err))
		return nil, domainErrors.ErrUploadFailed
	}

	coverImageURL := ""
	if coverImage != nil {
		coverImageURL, err = s.mediaStorage.Upload(ctx, "cover", coverImage.Reader, coverImage.Size, coverImage.ContentType)
		if err != nil {
			// The cover image is optional; a failed upload does not abort registration.
			s.logger.Warn("Register: cover image upload failed", zap.Error(err))
			coverImageURL = ""
		}
	}

	passwordHash, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		WatchHistory:  []uuid.UUID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, eventModels.AccountRegisteredV1, user.ID.String(), eventModels.AccountRegisteredPayload{
		UserID:       user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: now,
	})

	return user, nil
}

// Login verifies the credentials and issues a fresh access/refresh pair.
// The refresh token is persisted on the account, displacing any previous
// session (single-slot design).
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, *models.User, error) {
	username := models.NormalizeUsername(req.Username)
	email := models.NormalizeEmail(req.Email)
	if username == "" && email == "" {
		return nil, nil, fmt.Errorf("username or email is required: %w", domainErrors.ErrValidation)
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, nil, domainErrors.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	match, err := s.passwordService.CheckPasswordHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, nil, domainErrors.ErrInvalidCredentials
	}

	tokenPair, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, eventModels.AccountLoggedInV1, user.ID.String(), eventModels.AccountLoggedInPayload{
		UserID:     user.ID.String(),
		Username:   user.Username,
		LoggedInAt: time.Now().UTC(),
	})

	return tokenPair, user, nil
}

// Logout clears the stored refresh token, ending the account's single
// live session.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	s.publish(ctx, eventModels.AccountLoggedOutV1, userID.String(), nil)
	return nil
}

// RefreshTokens validates the presented refresh token, requires it to match
// the token currently stored on the account, and rotates the pair. The old
// refresh token is invalidated by overwrite.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, *models.User, error) {
	if refreshToken == "" {
		return nil, nil, domainErrors.ErrInvalidRefreshToken
	}

	claims, err := s.tokenManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidRefreshToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, domainErrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, nil, domainErrors.ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	// A signature-valid token that is not the stored one has been rotated
	// out or revoked by logout; reject it regardless of validity.
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, nil, domainErrors.ErrInvalidRefreshToken
	}

	tokenPair, err := s.issueAndStoreTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return tokenPair, user, nil
}

func (s *AuthService) issueAndStoreTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	tokenPair, err := s.tokenManager.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &tokenPair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	user.RefreshToken = &tokenPair.RefreshToken

	return tokenPair, nil
}

func (s *AuthService) publish(ctx context.Context, eventType, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, subject, payload); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
