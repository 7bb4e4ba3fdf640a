package errors

import (
	"errors"
	"fmt"
)

var (
	// Generic errors
	ErrInternal      = errors.New("internal server error")
	ErrValidation    = errors.New("required field is missing or empty")
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource already exists")
	ErrUnauthorized  = errors.New("unauthorized")

	// Authentication errors
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email is already in use")
	ErrUsernameExists = errors.New("username is already in use")

	// Media host errors
	ErrUploadFailed = errors.New("media host did not return a hosted URL")
)

// AppError carries an HTTP status and API error code alongside the wrapped error.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// IsValidation reports whether the error is a missing/empty-input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized reports whether the error is an authentication error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidRefreshToken)
}

// IsConflict reports whether the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrUsernameExists)
}
