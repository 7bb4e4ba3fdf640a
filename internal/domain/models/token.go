package models

import "github.com/golang-jwt/jwt/v5"

// TokenPair bundles a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AccessTokenClaims is the payload of the short-lived access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	TokenType string `json:"token_type"`
}

// RefreshTokenClaims is the payload of the long-lived refresh token.
// It intentionally carries the account id only.
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
}
