// refresh_token_repository.go persists issued refresh tokens so that logout
// can revoke them.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worknest/worknest/internal/db/models"
)

// RefreshTokenRepository handles refresh token database operations
type RefreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// CreateRefreshToken stores a newly issued token for userID
func (r *RefreshTokenRepository) CreateRefreshToken(ctx context.Context, userID, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, token, user_id, created_at) VALUES ($1, $2, $3, $4)`,
		rt.ID, rt.Token, rt.UserID, rt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// RefreshTokenExists reports whether token is still live
func (r *RefreshTokenRepository) RefreshTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return exists, nil
}

// DeleteRefreshToken revokes token. Deleting an unknown token is not an error.
func (r *RefreshTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// DeleteRefreshTokensBefore removes tokens issued before cutoff and returns how many went
func (r *RefreshTokenRepository) DeleteRefreshTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged refresh tokens: %w", err)
	}
	return n, nil
}
