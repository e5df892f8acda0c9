// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, metrics and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity; authorization itself is decided by the
// services. Audit logging runs after the handler so only successful mutations
// are recorded.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/auth"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey         = "user_id"
	UserRoleKey       = "user_role"
	OrganisationIDKey = "organisation_id"
	AuthMethodKey     = "auth_method"
)

// Session cookie names.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// AccessTokenVerifier is satisfied by *auth.TokenIssuer.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// UserLookup is satisfied by *repositories.UserRepository.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// accessToken prefers the cookie set at login; non-browser clients send a
// bearer header instead.
func accessToken(c *gin.Context) (token, method string) {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v, "cookie"
	}
	if v := BearerToken(c); v != "" {
		return v, "bearer"
	}
	return "", ""
}

// AuthMiddleware validates the access token and loads the caller. The user id,
// role and organisation are stored in the gin context for handlers and the
// audit middleware.
func AuthMiddleware(tokens AccessTokenVerifier, users UserLookup, out response.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, method := accessToken(c)
		if token == "" {
			out.Error(c, http.StatusUnauthorized, services.MsgUnauthorized, nil)
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			out.Error(c, http.StatusUnauthorized, services.MsgUnauthorized, nil)
			return
		}

		// The token may outlive the account.
		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		if user == nil {
			out.Error(c, http.StatusUnauthorized, services.MsgUnauthorized, nil)
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserRoleKey, string(user.Role))
		c.Set(AuthMethodKey, method)
		if orgID := user.OrgID(); orgID != "" {
			c.Set(OrganisationIDKey, orgID)
		}

		c.Next()
	}
}
