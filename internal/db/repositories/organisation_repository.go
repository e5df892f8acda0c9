// organisation_repository.go implements OrganisationRepository: transactional
// registration of an organisation with its admin, lookups and listing.
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

const organisationColumns = `id, name, email_address, logo, website, registration_number, admin_id, consent, created_at, updated_at`

// OrganisationRepository handles organisation database operations
type OrganisationRepository struct {
	db *sqlx.DB
}

// NewOrganisationRepository creates a new OrganisationRepository
func NewOrganisationRepository(db *sqlx.DB) *OrganisationRepository {
	return &OrganisationRepository{db: db}
}

// RegisterOrganisation creates the organisation and its admin user in one
// transaction. The admin is stored already associated with the organisation
// as its Organisation Admin, and org.AdminID is set to the admin's id.
func (r *OrganisationRepository) RegisterOrganisation(ctx context.Context, org *models.Organisation, admin *models.User) error {
	now := time.Now()
	org.ID = uuid.New().String()
	org.CreatedAt = now
	org.UpdatedAt = now
	admin.ID = uuid.New().String()
	org.AdminID = admin.ID
	admin.Role = authz.RoleOrgAdmin
	admin.Membership = models.MemberOf(org.ID, authz.RoleOrgAdmin)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	// organisations.admin_id is deferred, so the organisation row can go first
	// and satisfy users.organisation_id immediately.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO organisations (`+organisationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		org.ID,
		org.Name,
		org.EmailAddress,
		org.Logo,
		org.Website,
		org.RegistrationNumber,
		org.AdminID,
		org.Consent,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create organisation: %w", err)
	}

	if err := insertUser(ctx, tx, admin); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit organisation registration: %w", err)
	}
	return nil
}

// GetOrganisationByID retrieves an organisation by ID
func (r *OrganisationRepository) GetOrganisationByID(ctx context.Context, id string) (*models.Organisation, error) {
	org := &models.Organisation{}
	err := r.db.GetContext(ctx, org, `SELECT `+organisationColumns+` FROM organisations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListOrganisations returns one page of organisations with their admin's
// name, optionally filtered by a case-insensitive search on name or email.
func (r *OrganisationRepository) ListOrganisations(ctx context.Context, scope authz.OrganisationScope, search string, limit, offset int) ([]*models.OrganisationWithAdmin, int, error) {
	if !scope.Unrestricted {
		return nil, 0, fmt.Errorf("unsupported organisation scope")
	}

	where := `TRUE`
	args := make([]interface{}, 0, 3)
	if search != "" {
		args = append(args, likePattern(search))
		where = `(o.name ILIKE $1 OR o.email_address ILIKE $1)`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM organisations o WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count organisations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.name, o.email_address, o.logo, o.website, o.registration_number,
		       o.admin_id, o.consent, o.created_at, o.updated_at, COALESCE(u.name, '') AS admin_name
		FROM organisations o
		LEFT JOIN users u ON u.id = o.admin_id
		WHERE %s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	orgs := []*models.OrganisationWithAdmin{}
	if err := r.db.SelectContext(ctx, &orgs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list organisations: %w", err)
	}
	return orgs, total, nil
}
