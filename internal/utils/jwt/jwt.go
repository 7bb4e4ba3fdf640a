package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamhive/account-service/internal/config"
	"github.com/streamhive/account-service/internal/domain/models"
)

var (
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidSigningMethod is returned for tokens not signed with HMAC.
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	// ErrInvalidClaims is returned when the token claims cannot be read.
	ErrInvalidClaims = errors.New("invalid token claims")
)

// TokenType marks the intended use of a JWT.
type TokenType string

const (
	// AccessToken authorizes a single request window.
	AccessToken TokenType = "access"
	// RefreshToken mints new access/refresh pairs.
	RefreshToken TokenType = "refresh"
)

// TokenManager issues and verifies the access/refresh token pair.
// The two token kinds are signed with distinct secrets, so a refresh
// token never verifies as an access token and vice versa.
type TokenManager struct {
	cfg *config.JWTConfig
}

// NewTokenManager creates a token manager from the JWT configuration.
func NewTokenManager(cfg *config.JWTConfig) (*TokenManager, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("jwt secrets are not configured")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &TokenManager{cfg: cfg}, nil
}

// GenerateAccessToken issues a short-lived access token carrying the
// user's id, username, email and full name.
func (tm *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.cfg.AccessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.cfg.Issuer,
		},
		UserID:    user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		TokenType: string(AccessToken),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.cfg.AccessTokenSecret))
}

// GenerateRefreshToken issues a long-lived refresh token carrying the
// user id only.
func (tm *TokenManager) GenerateRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := &models.RefreshTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.cfg.RefreshTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.cfg.Issuer,
		},
		UserID:    userID,
		TokenType: string(RefreshToken),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.cfg.RefreshTokenSecret))
}

// GenerateTokenPair issues a new access/refresh pair for the user.
func (tm *TokenManager) GenerateTokenPair(user *models.User) (*models.TokenPair, error) {
	accessToken, err := tm.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err := tm.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateAccessToken verifies an access token and returns its claims.
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*models.AccessTokenClaims, error) {
	claims := &models.AccessTokenClaims{}
	if err := tm.parse(tokenString, claims, tm.cfg.AccessTokenSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != string(AccessToken) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken verifies a refresh token and returns its claims.
func (tm *TokenManager) ValidateRefreshToken(tokenString string) (*models.RefreshTokenClaims, error) {
	claims := &models.RefreshTokenClaims{}
	if err := tm.parse(tokenString, claims, tm.cfg.RefreshTokenSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != string(RefreshToken) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenString string, claims jwt.Claims, secret string) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
