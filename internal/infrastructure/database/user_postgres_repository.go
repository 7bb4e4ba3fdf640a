package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/streamhive/account-service/internal/domain/errors"
	"github.com/streamhive/account-service/internal/domain/models"
	"github.com/streamhive/account-service/internal/domain/repository"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, watch_history, created_at, updated_at`

// pgxUserRepository implements repository.UserRepository using pgx.
type pgxUserRepository struct {
	db *pgxpool.Pool
}

// NewPgxUserRepository creates a new instance of pgxUserRepository.
func NewPgxUserRepository(db *pgxpool.Pool) repository.UserRepository {
	return &pgxUserRepository{db: db}
}

// Create persists a new user to the database.
func (r *pgxUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, username, email, full_name, password_hash,
			avatar_url, cover_image_url, refresh_token, watch_history,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL, user.RefreshToken, user.WatchHistory,
		user.CreatedAt, user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateUniqueViolation(err))
	}
	return nil
}

// FindByID retrieves a user by their unique ID.
func (r *pgxUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByUsernameOrEmail retrieves the first user matching either identifier.
// Empty identifiers never match because the columns are non-empty by schema.
func (r *pgxUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $2 LIMIT 1`

	user, err := r.scanRow(r.db.QueryRow(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by username or email: %w", err)
	}
	return user, nil
}

// UpdateRefreshToken overwrites the single-slot refresh token; nil clears it.
func (r *pgxUserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	query := `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *pgxUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies only the provided profile fields in a single
// statement and returns the updated row.
func (r *pgxUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	var setClauses []string
	args := []interface{}{id}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Username != nil {
		addSet("username", *req.Username)
	}
	if req.FullName != nil {
		addSet("full_name", *req.FullName)
	}
	if req.Email != nil {
		addSet("email", *req.Email)
	}
	if len(setClauses) == 0 {
		return nil, domainErrors.ErrValidation
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(setClauses, ", "), userColumns)

	user, err := r.scanRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", translateUniqueViolation(err))
	}
	return user, nil
}

// UpdateAvatarURL replaces the avatar reference and returns the updated row.
func (r *pgxUserRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) (*models.User, error) {
	return r.updateImageURL(ctx, id, "avatar_url", url)
}

// UpdateCoverImageURL replaces the cover image reference and returns the updated row.
func (r *pgxUserRepository) UpdateCoverImageURL(ctx context.Context, id uuid.UUID, url string) (*models.User, error) {
	return r.updateImageURL(ctx, id, "cover_image_url", url)
}

func (r *pgxUserRepository) updateImageURL(ctx context.Context, id uuid.UUID, column, url string) (*models.User, error) {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE id = $1 RETURNING %s`,
		column, userColumns)

	user, err := r.scanRow(r.db.QueryRow(ctx, query, id, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}
	return user, nil
}

func (r *pgxUserRepository) scanRow(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &user.RefreshToken, &user.WatchHistory,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// translateUniqueViolation maps postgres unique-index violations onto the
// domain error taxonomy, keyed by constraint name.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "users_username_key"):
			return domainErrors.ErrUsernameExists
		case strings.Contains(pgErr.ConstraintName, "users_email_key"):
			return domainErrors.ErrEmailExists
		default:
			return domainErrors.ErrConflict
		}
	}
	return err
}
