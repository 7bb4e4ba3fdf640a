package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/streamhive/account-service/internal/domain/models"
)

// UserRepository defines the persistence operations on Account records.
// Implementations must translate store-level uniqueness violations into
// the domain error taxonomy and perform every update as a single atomic
// statement (last-write-wins on refresh_token and profile fields).
type UserRepository interface {
	// Create persists a new user. Uniqueness violations surface as
	// ErrUsernameExists / ErrEmailExists.
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user by id, ErrUserNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByUsernameOrEmail retrieves the first user matching either
	// identifier. Empty identifiers never match.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)

	// UpdateRefreshToken overwrites the single-slot refresh token;
	// nil clears the slot.
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateProfile applies only the provided profile fields and returns
	// the updated row. Uniqueness violations surface as conflict errors.
	UpdateProfile(ctx context.Context, id uuid.UUID, req models.UpdateProfileRequest) (*models.User, error)

	// UpdateAvatarURL replaces the avatar reference and returns the updated row.
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) (*models.User, error)

	// UpdateCoverImageURL replaces the cover image reference and returns the updated row.
	UpdateCoverImageURL(ctx context.Context, id uuid.UUID, url string) (*models.User, error)
}
