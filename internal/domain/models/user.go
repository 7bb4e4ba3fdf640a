package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents the account entity persisted in the users table.
type User struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	Username      string      `json:"username" db:"username"`
	Email         string      `json:"email" db:"email"`
	FullName      string      `json:"full_name" db:"full_name"`
	PasswordHash  string      `json:"-" db:"password_hash"`
	AvatarURL     string      `json:"avatar_url" db:"avatar_url"`
	CoverImageURL string      `json:"cover_image_url,omitempty" db:"cover_image_url"`
	RefreshToken  *string     `json:"-" db:"refresh_token"`
	WatchHistory  []uuid.UUID `json:"-" db:"watch_history"` // video references, not served by this service
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// UserResponse structures the account data returned by API endpoints.
// PasswordHash and RefreshToken are never part of it.
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToResponse converts a User to its sanitized API representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// NormalizeUsername lowercases and trims a username the way the schema stores it.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
