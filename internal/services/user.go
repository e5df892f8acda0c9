package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/auth"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
	"github.com/worknest/worknest/internal/telemetry"
)

// UserService handles self-registration, email confirmation, sessions and
// user lookups.
type UserService struct {
	users      UserStore
	tokens     RefreshTokenStore
	issuer     *auth.TokenIssuer
	notifier   Notifier
	bcryptCost int
	async      background
	now        func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, tokens RefreshTokenStore, issuer *auth.TokenIssuer, notifier Notifier, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		async:      runInBackground,
		now:        time.Now,
	}
}

// Session is the result of a successful login or refresh. The handler moves
// the tokens into cookies.
type Session struct {
	User         *SessionUser `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

// SessionUser is the public identity returned on login.
type SessionUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
}

// Register creates an unconfirmed account with the User role and emails a
// confirmation link.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) Result {
	email := strings.TrimSpace(in.EmailAddress)
	inUse, err := s.users.EmailInUse(ctx, email)
	if err != nil {
		return internalError("check email", err)
	}
	if inUse {
		return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return internalError("hash password", err)
	}
	code, err := auth.GenerateOTP(6)
	if err != nil {
		return internalError("generate confirmation code", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		EmailAddress: email,
		PasswordHash: hash,
		Role:         authz.RoleUser,
		Membership:   models.NoMembership(),
		AccountConfirmation: models.AccountConfirmation{
			Token: auth.GenerateConfirmationToken(),
			Code:  code,
		},
		Consent: in.Consent,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return failure(http.StatusUnprocessableEntity, AlreadyInUse("Email address"))
		}
		return internalError("create user", err)
	}
	telemetry.RegistrationsTotal.WithLabelValues("user").Inc()

	to, name, token := user.EmailAddress, user.Name, user.Token
	s.async.notify("confirmation email", func(ctx context.Context) error {
		return s.notifier.SendConfirmation(ctx, to, name, token, code)
	})

	return success(http.StatusCreated, MsgSuccess, payload{"user": user})
}

// Confirm marks the account matching (token, code) as confirmed. It is
// one-way: a second confirmation fails.
func (s *UserService) Confirm(ctx context.Context, token, code string) Result {
	if token == "" || code == "" {
		return failure(http.StatusBadRequest, MsgInvalidConfirmationLink)
	}
	user, err := s.users.GetUserByConfirmation(ctx, token, code)
	if err != nil {
		return internalError("find user by confirmation", err)
	}
	if user == nil {
		return failure(http.StatusBadRequest, MsgInvalidConfirmationLink)
	}
	if user.Confirmed {
		return failure(http.StatusBadRequest, MsgAccountAlreadyConfirmed)
	}

	ok, err := s.users.ConfirmAccount(ctx, user.ID, s.now().UTC())
	if err != nil {
		return internalError("confirm account", err)
	}
	if !ok {
		return failure(http.StatusBadRequest, MsgAccountAlreadyConfirmed)
	}

	to, name := user.EmailAddress, user.Name
	s.async.notify("account verified email", func(ctx context.Context) error {
		return s.notifier.SendAccountVerified(ctx, to, name)
	})
	return success(http.StatusOK, MsgEmailVerified, nil)
}

// Login verifies the credentials and issues a token pair. Confirmation is not
// required to log in.
func (s *UserService) Login(ctx context.Context, in LoginInput) Result {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(in.EmailAddress))
	if err != nil {
		return internalError("find user by email", err)
	}
	if user == nil {
		telemetry.LoginsTotal.WithLabelValues("unknown_user").Inc()
		return failure(http.StatusUnprocessableEntity, NotFound("User"))
	}
	if !auth.VerifyPassword(in.Password, user.PasswordHash) {
		telemetry.LoginsTotal.WithLabelValues("bad_password").Inc()
		return failure(http.StatusBadRequest, MsgInvalidPassword)
	}

	access, err := s.issuer.IssueAccessToken(user.ID, user.Name, user.Role)
	if err != nil {
		return internalError("issue access token", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return internalError("issue refresh token", err)
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return internalError("update last login", err)
	}
	if _, err := s.tokens.CreateRefreshToken(ctx, user.ID, refresh); err != nil {
		return internalError("store refresh token", err)
	}
	telemetry.LoginsTotal.WithLabelValues("success").Inc()

	return success(http.StatusOK, MsgSuccess, &Session{
		User:         &SessionUser{ID: user.ID, Name: user.Name, EmailAddress: user.EmailAddress},
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// Refresh issues a new access token for a stored, valid refresh token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) Result {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return failure(http.StatusUnauthorized, MsgInvalidRefreshToken)
	}
	exists, err := s.tokens.RefreshTokenExists(ctx, refreshToken)
	if err != nil {
		return internalError("look up refresh token", err)
	}
	if !exists {
		return failure(http.StatusUnauthorized, MsgInvalidRefreshToken)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return internalError("load user", err)
	}
	if user == nil {
		return failure(http.StatusUnauthorized, MsgInvalidRefreshToken)
	}
	access, err := s.issuer.IssueAccessToken(user.ID, user.Name, user.Role)
	if err != nil {
		return internalError("issue access token", err)
	}
	return success(http.StatusOK, MsgSuccess, &Session{AccessToken: access})
}

// Logout forgets the refresh token. Logging out without one still succeeds.
func (s *UserService) Logout(ctx context.Context, refreshToken string) Result {
	if refreshToken != "" {
		if err := s.tokens.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return internalError("delete refresh token", err)
		}
	}
	return success(http.StatusOK, MsgLoggedOut, nil)
}

// List returns one page of the users the actor may see.
func (s *UserService) List(ctx context.Context, actorID string, p Pagination, search string) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	scope, err := authz.UserListScope(actor.Actor())
	if err != nil {
		return denied("user.list", err)
	}
	users, total, err := s.users.ListUsers(ctx, scope, strings.TrimSpace(search), p.Limit, p.Offset())
	if err != nil {
		return internalError("list users", err)
	}
	return success(http.StatusOK, MsgSuccess, pagedList("users", users, total, p))
}

// Details returns another user's account if the actor may view it.
func (s *UserService) Details(ctx context.Context, actorID, targetID string) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return internalError("load user", err)
	}
	if target == nil {
		return failure(http.StatusNotFound, NotFound("User"))
	}
	if err := authz.CanViewUser(actor.Actor(), target.Actor()); err != nil {
		return denied("user.details", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"user": target})
}
