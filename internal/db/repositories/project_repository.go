// project_repository.go implements ProjectRepository, including the
// version-guarded team membership update.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
)

const projectColumns = `id, name, description, project_type, other_type, restricted, manager_id, logo,
	owner_id, team_members, status, priority, start_date, end_date, progress,
	attachment_urls, attachment_files, version, created_at, updated_at`

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateProject inserts a project. A second project with the same name for
// the same owner yields ErrDuplicate.
func (r *ProjectRepository) CreateProject(ctx context.Context, p *models.Project) error {
	now := time.Now()
	p.ID = uuid.New().String()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.TeamMembers == nil {
		p.TeamMembers = pq.StringArray{}
	}
	if p.URLs == nil {
		p.URLs = pq.StringArray{}
	}
	if p.Files == nil {
		p.Files = pq.StringArray{}
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.PType,
		p.OtherType,
		p.Restricted,
		p.ManagerID,
		p.Logo,
		p.OwnerID,
		p.TeamMembers,
		p.Status,
		p.Priority,
		p.StartDate,
		p.EndDate,
		p.Progress,
		p.URLs,
		p.Files,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProjectByID retrieves a project by ID
func (r *ProjectRepository) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	p := &models.Project{}
	err := r.db.GetContext(ctx, p, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProjectNameExists reports whether ownerID already has a project called name
func (r *ProjectRepository) ProjectNameExists(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE owner_id = $1 AND name = $2)`,
		ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project name: %w", err)
	}
	return exists, nil
}

// projectScopeClause translates an authorization scope into a WHERE clause
// using $1 for the user id.
func projectScopeClause(scope authz.ProjectScope) (string, error) {
	switch scope.Kind {
	case authz.ProjectScopeOwned:
		return `owner_id = $1`, nil
	case authz.ProjectScopeManaged:
		return `manager_id = $1`, nil
	case authz.ProjectScopeMember:
		return `$1 = ANY(team_members)`, nil
	default:
		return "", fmt.Errorf("unsupported project scope %d", scope.Kind)
	}
}

// ListProjects returns one page of projects inside scope, newest first
func (r *ProjectRepository) ListProjects(ctx context.Context, scope authz.ProjectScope, limit, offset int) ([]*models.Project, int, error) {
	where, err := projectScopeClause(scope)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects WHERE `+where, scope.UserID); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	projects := []*models.Project{}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE ` + where + ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &projects, query, scope.UserID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// UpdateTeamMembers replaces the team if the project is still at
// expectedVersion, returning the new version. A concurrent change in between
// yields ErrVersionConflict and leaves the row untouched.
func (r *ProjectRepository) UpdateTeamMembers(ctx context.Context, projectID string, members []string, expectedVersion int) (int, error) {
	if members == nil {
		members = []string{}
	}
	var newVersion int
	err := r.db.QueryRowContext(ctx, `
		UPDATE projects
		SET team_members = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
		RETURNING version
	`, pq.StringArray(members), time.Now(), projectID, expectedVersion).Scan(&newVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update team members: %w", err)
	}
	return newVersion, nil
}
