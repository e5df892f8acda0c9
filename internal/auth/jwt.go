// Package auth - jwt.go issues and verifies the access and refresh tokens.
// Each kind is signed with its own HMAC secret so a refresh token can never be
// presented as an access token.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/config"
)

const issuer = "worknest"

// ErrInvalidToken is returned for any token that fails parsing, signature or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims identify the caller on every authenticated request.
type AccessClaims struct {
	UserID string     `json:"_id"`
	Name   string     `json:"name"`
	Role   authz.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user id.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies tokens with the configured secrets and TTLs.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// isDevMode checks if we're in development mode
func isDevMode() bool {
	devMode := os.Getenv("DEV_MODE")
	ginMode := os.Getenv("GIN_MODE")
	return devMode == "true" || devMode == "1" || ginMode == "debug"
}

// generateRandomSecret creates a cryptographically secure random secret
func generateRandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func resolveSecret(name, secret string) (string, error) {
	if secret != "" {
		if len(secret) < 32 {
			slog.Warn("token secret is shorter than 32 characters", "secret", name)
		}
		return secret, nil
	}
	if !isDevMode() {
		return "", fmt.Errorf("auth.%s is required in production; generate one with: openssl rand -hex 32", name)
	}
	generated, err := generateRandomSecret()
	if err != nil {
		return "", err
	}
	slog.Warn("token secret not set, using a generated one; sessions will not survive restarts", "secret", name)
	return generated, nil
}

// NewTokenIssuer validates the secrets in cfg. In dev mode a missing secret is
// replaced by a random one.
func NewTokenIssuer(cfg config.AuthConfig) (*TokenIssuer, error) {
	access, err := resolveSecret("access_token_secret", cfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := resolveSecret("refresh_token_secret", cfg.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}
	if access == refresh {
		return nil, errors.New("auth.access_token_secret and auth.refresh_token_secret must differ")
	}
	return &TokenIssuer{
		accessSecret:  []byte(access),
		refreshSecret: []byte(refresh),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// AccessTTL is the lifetime of access tokens and their cookie.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL is the lifetime of refresh tokens and their cookie.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

func registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   subject,
	}
}

// IssueAccessToken signs an access token for the user
func (t *TokenIssuer) IssueAccessToken(userID, name string, role authz.Role) (string, error) {
	claims := &AccessClaims{
		UserID:           userID,
		Name:             name,
		Role:             role,
		RegisteredClaims: registered(userID, t.accessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// IssueRefreshToken signs a refresh token for the user
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	claims := &RefreshClaims{
		UserID:           userID,
		RegisteredClaims: registered(userID, t.refreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

func parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// VerifyAccessToken parses and validates an access token
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, claims, t.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, claims, t.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
