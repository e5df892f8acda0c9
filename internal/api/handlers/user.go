// user.go implements the account endpoints: registration, email confirmation,
// sessions and user lookups.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/services"
)

// UserOperations is the part of services.UserService the handlers use.
type UserOperations interface {
	Register(ctx context.Context, in services.RegisterUserInput) services.Result
	Confirm(ctx context.Context, token, code string) services.Result
	Login(ctx context.Context, in services.LoginInput) services.Result
	Refresh(ctx context.Context, refreshToken string) services.Result
	Logout(ctx context.Context, refreshToken string) services.Result
	List(ctx context.Context, actorID string, p services.Pagination, search string) services.Result
	Details(ctx context.Context, actorID, targetID string) services.Result
}

// UserHandlers handles the /user account endpoints
type UserHandlers struct {
	users   UserOperations
	out     response.Writer
	cookies CookieConfig
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(users UserOperations, out response.Writer, cookies CookieConfig) *UserHandlers {
	return &UserHandlers{users: users, out: out, cookies: cookies}
}

// @Summary      Register user
// @Description  Create an unconfirmed account and email a confirmation link.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body  services.RegisterUserInput  true  "Account"
// @Success      201  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope  "Validation failed or email in use"
// @Router       /api/v1/user/register [post]
// RegisterHandler creates a user account
// POST /api/v1/user/register
func (h *UserHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.RegisterUserInput
		if err := c.ShouldBindJSON(&in); err != nil {
			h.out.BindError(c, err)
			return
		}
		h.out.FromResult(c, h.users.Register(c.Request.Context(), in))
	}
}

// @Summary      Confirm email
// @Tags         User
// @Produce      json
// @Param        token  path   string  true  "Confirmation token"
// @Param        code   query  string  true  "Confirmation code"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope  "Invalid link or already confirmed"
// @Router       /api/v1/user/confirmation/{token} [get]
// ConfirmHandler confirms an account from the emailed link
// GET /api/v1/user/confirmation/:token?code=
func (h *UserHandlers) ConfirmHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.users.Confirm(c.Request.Context(), c.Param("token"), c.Query("code")))
	}
}

// @Summary      Log in
// @Description  Verify credentials and set the accessToken and refreshToken cookies.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body  services.LoginInput  true  "Credentials"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope  "Invalid password"
// @Failure      422  {object}  response.Envelope  "User not found"
// @Router       /api/v1/user/login [post]
// LoginHandler starts a session
// POST /api/v1/user/login
func (h *UserHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.LoginInput
		if err := c.ShouldBindJSON(&in); err != nil {
			h.out.BindError(c, err)
			return
		}
		res := h.users.Login(c.Request.Context(), in)
		if session, ok := res.Data.(*services.Session); ok && res.Success {
			h.cookies.set(c, middleware.AccessTokenCookie, session.AccessToken, h.cookies.AccessTTL)
			h.cookies.set(c, middleware.RefreshTokenCookie, session.RefreshToken, h.cookies.RefreshTTL)
		}
		h.out.FromResult(c, res)
	}
}

// refreshToken reads the refresh cookie, falling back to a bearer header for
// non-browser clients.
func refreshToken(c *gin.Context) string {
	if v, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && v != "" {
		return v
	}
	return middleware.BearerToken(c)
}

// RefreshHandler issues a new access token from the refresh cookie
// POST /api/v1/user/refresh
func (h *UserHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := h.users.Refresh(c.Request.Context(), refreshToken(c))
		if session, ok := res.Data.(*services.Session); ok && res.Success {
			h.cookies.set(c, middleware.AccessTokenCookie, session.AccessToken, h.cookies.AccessTTL)
		}
		h.out.FromResult(c, res)
	}
}

// LogoutHandler revokes the refresh token and clears both cookies
// POST /api/v1/user/logout
func (h *UserHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		res := h.users.Logout(c.Request.Context(), refreshToken(c))
		if res.Success {
			h.cookies.clear(c, middleware.AccessTokenCookie)
			h.cookies.clear(c, middleware.RefreshTokenCookie)
		}
		h.out.FromResult(c, res)
	}
}

// @Summary      List users
// @Description  Page through the users visible to the caller's role.
// @Tags         User
// @Security     Bearer
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page, max 100 (default 10)"
// @Param        search  query  string  false  "Name or email filter"
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Router       /api/v1/user/allUsers [get]
// ListUsersHandler lists users
// GET /api/v1/user/allUsers?page=1&limit=10&search=
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := pagination(c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.users.List(c.Request.Context(), actorID(c), p, c.Query("search")))
	}
}

// UserDetailsHandler returns a single user
// GET /api/v1/user/userDetails?userId=
func (h *UserHandlers) UserDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		target := c.Query("userId")
		if target == "" {
			h.out.Error(c, http.StatusBadRequest, "userId: required", nil)
			return
		}
		h.out.FromResult(c, h.users.Details(c.Request.Context(), actorID(c), target))
	}
}
