// Package repositories implements the data access layer for Worknest.
// Each repository type encapsulates all database queries for a domain entity.
// Services never issue SQL directly.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
)

const userColumns = `id, name, email_address, password_hash, role,
	is_associated, organisation_id, organisation_role,
	confirmation_status, confirmation_token, confirmation_code, confirmed_at,
	password_reset_token, password_reset_expiry, password_last_reset_at,
	last_login_at, consent, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user and assigns its ID and timestamps
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return insertUser(ctx, r.db, user)
}

func insertUser(ctx context.Context, exec sqlx.ExecerContext, user *models.User) error {
	if !user.Membership.Consistent() {
		return fmt.Errorf("user %s has an inconsistent organisation membership", user.EmailAddress)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := exec.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.EmailAddress,
		user.PasswordHash,
		user.Role,
		user.IsAssociated,
		user.OrganisationID,
		user.OrganisationRole,
		user.Confirmed,
		user.Token,
		user.Code,
		user.ConfirmedAt,
		user.ResetToken,
		user.ResetExpiry,
		user.LastResetAt,
		user.LastLoginAt,
		user.Consent,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE `+where, args...)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, userID)
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `LOWER(email_address) = LOWER($1)`, email)
}

// GetUserByConfirmation retrieves the user holding a confirmation token/code pair
func (r *UserRepository) GetUserByConfirmation(ctx context.Context, token, code string) (*models.User, error) {
	return r.getOne(ctx, `confirmation_token = $1 AND confirmation_code = $2`, token, code)
}

// GetUsersByIDs returns the users that exist among ids, in no particular order
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	users := []*models.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		if isMalformedID(err) {
			return []*models.User{}, nil
		}
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// EmailInUse reports whether email belongs to any user or organisation
func (r *UserRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email_address) = LOWER($1))
		    OR EXISTS (SELECT 1 FROM organisations WHERE LOWER(email_address) = LOWER($1))
	`
	var inUse bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return inUse, nil
}

// ConfirmAccount marks the account confirmed. It returns false when the
// account was already confirmed, so two racing confirmations cannot both win.
func (r *UserRepository) ConfirmAccount(ctx context.Context, userID string, at time.Time) (bool, error) {
	query := `
		UPDATE users
		SET confirmation_status = true, confirmed_at = $1, updated_at = $1
		WHERE id = $2 AND confirmation_status = false
	`
	res, err := r.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AcceptInvitation replaces the temporary password and confirms the account in
// one statement. It returns false when the account was already confirmed.
func (r *UserRepository) AcceptInvitation(ctx context.Context, userID, passwordHash string, at time.Time) (bool, error) {
	query := `
		UPDATE users
		SET password_hash = $1, confirmation_status = true, confirmed_at = $2,
		    password_last_reset_at = $2, updated_at = $2
		WHERE id = $3 AND confirmation_status = false
	`
	res, err := r.db.ExecContext(ctx, query, passwordHash, at, userID)
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`,
		at, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListUsers returns one page of users inside scope, optionally filtered by a
// case-insensitive search on name or email, newest first.
func (r *UserRepository) ListUsers(ctx context.Context, scope authz.UserScope, search string, limit, offset int) ([]*models.UserSummary, int, error) {
	where := ``
	args := make([]interface{}, 0, 4)

	switch scope.Kind {
	case authz.UserScopeAll:
		where = `TRUE`
	case authz.UserScopeExcludeMasterAdmins:
		args = append(args, authz.RoleMasterAdmin)
		where = `role <> $1`
	case authz.UserScopeOrganisation:
		args = append(args, scope.OrganisationID)
		where = `organisation_id = $1`
	default:
		return nil, 0, fmt.Errorf("unsupported user scope %d", scope.Kind)
	}

	if search != "" {
		args = append(args, likePattern(search))
		where += fmt.Sprintf(` AND (name ILIKE $%d OR email_address ILIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, email_address, role, is_associated, organisation_id, organisation_role, created_at
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	users := []*models.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
