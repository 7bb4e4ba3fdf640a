package service

import (
	"context"
	"io"
)

// PasswordService handles one-way password hashing and verification.
type PasswordService interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) (bool, error)
}

// MediaStorage is the external media host: it stores an uploaded image
// and returns a durable public URL. An empty URL is treated as a failed
// upload by callers (the host fails closed).
type MediaStorage interface {
	Upload(ctx context.Context, kind string, body io.Reader, size int64, contentType string) (string, error)
}

// EventPublisher emits account lifecycle events to the message bus.
// Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, subject string, payload interface{}) error
}
