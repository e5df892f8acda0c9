// profile_repository.go implements ProfileRepository: basic info, education
// and profession records. Updates and deletes are scoped by owner, so a
// caller cannot touch another user's entries.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worknest/worknest/internal/db/models"
)

const (
	educationColumns  = `id, user_id, institution_name, degree, grade_type, grade_value, start_date, end_date, is_present, created_at, updated_at`
	professionColumns = `id, user_id, organization_name, role, position, start_date, end_date, is_present, created_at, updated_at`
)

// ProfileRepository handles user profile database operations
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// UpsertBasicInfo creates or replaces the user's basic info
func (r *ProfileRepository) UpsertBasicInfo(ctx context.Context, info *models.UserBasicInfo) error {
	info.UpdatedAt = time.Now()
	if info.SocialLinks == nil {
		info.SocialLinks = models.SocialLinks{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_basic_info (user_id, bio, social_links, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			social_links = EXCLUDED.social_links,
			updated_at = EXCLUDED.updated_at
	`, info.UserID, info.Bio, info.SocialLinks, info.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save basic info: %w", err)
	}
	return nil
}

// GetBasicInfo returns the user's basic info, or nil if none was saved
func (r *ProfileRepository) GetBasicInfo(ctx context.Context, userID string) (*models.UserBasicInfo, error) {
	info := &models.UserBasicInfo{}
	err := r.db.GetContext(ctx, info,
		`SELECT user_id, bio, social_links, updated_at FROM user_basic_info WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// CreateEducation inserts an education entry
func (r *ProfileRepository) CreateEducation(ctx context.Context, e *models.UserEducation) error {
	now := time.Now()
	e.ID = uuid.New().String()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_education (`+educationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.UserID, e.InstitutionName, e.Degree, e.Grade.Type, e.Grade.Value,
		e.StartDate, e.EndDate, e.IsPresent, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create education: %w", err)
	}
	return nil
}

// ListEducation returns a user's education history, most recent first
func (r *ProfileRepository) ListEducation(ctx context.Context, userID string) ([]*models.UserEducation, error) {
	entries := []*models.UserEducation{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+educationColumns+` FROM user_education WHERE user_id = $1 ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	return entries, nil
}

// UpdateEducation overwrites an entry owned by e.UserID. It returns false if
// no such entry exists for that user.
func (r *ProfileRepository) UpdateEducation(ctx context.Context, e *models.UserEducation) (bool, error) {
	e.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_education
		SET institution_name = $1, degree = $2, grade_type = $3, grade_value = $4,
		    start_date = $5, end_date = $6, is_present = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
	`, e.InstitutionName, e.Degree, e.Grade.Type, e.Grade.Value,
		e.StartDate, e.EndDate, e.IsPresent, e.UpdatedAt, e.ID, e.UserID)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update education: %w", err)
	}
	return affectedOne(res)
}

// DeleteEducation removes an entry owned by userID
func (r *ProfileRepository) DeleteEducation(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_education WHERE id = $1 AND user_id = $2`, id, userID)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete education: %w", err)
	}
	return affectedOne(res)
}

// CreateProfession inserts a profession entry
func (r *ProfileRepository) CreateProfession(ctx context.Context, p *models.UserProfession) error {
	now := time.Now()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profession (`+professionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.UserID, p.OrganizationName, p.Role, p.Position,
		p.StartDate, p.EndDate, p.IsPresent, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profession: %w", err)
	}
	return nil
}

// ListProfessions returns a user's professional history, most recent first
func (r *ProfileRepository) ListProfessions(ctx context.Context, userID string) ([]*models.UserProfession, error) {
	entries := []*models.UserProfession{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+professionColumns+` FROM user_profession WHERE user_id = $1 ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list professions: %w", err)
	}
	return entries, nil
}

// UpdateProfession overwrites an entry owned by p.UserID
func (r *ProfileRepository) UpdateProfession(ctx context.Context, p *models.UserProfession) (bool, error) {
	p.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_profession
		SET organization_name = $1, role = $2, position = $3,
		    start_date = $4, end_date = $5, is_present = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9
	`, p.OrganizationName, p.Role, p.Position,
		p.StartDate, p.EndDate, p.IsPresent, p.UpdatedAt, p.ID, p.UserID)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update profession: %w", err)
	}
	return affectedOne(res)
}

// DeleteProfession removes an entry owned by userID
func (r *ProfileRepository) DeleteProfession(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_profession WHERE id = $1 AND user_id = $2`, id, userID)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete profession: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
