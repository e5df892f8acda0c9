package services

import (
	"context"
	"net/http"
	"time"

	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
	"github.com/worknest/worknest/internal/safego"
)

// UserStore is the subset of repositories.UserRepository the services use.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByConfirmation(ctx context.Context, token, code string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	ConfirmAccount(ctx context.Context, id string, at time.Time) (bool, error)
	AcceptInvitation(ctx context.Context, id, passwordHash string, at time.Time) (bool, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	ListUsers(ctx context.Context, scope authz.UserScope, search string, limit, offset int) ([]*models.UserSummary, int, error)
}

// RefreshTokenStore persists issued refresh tokens.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, userID, token string) (*models.RefreshToken, error)
	RefreshTokenExists(ctx context.Context, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// OrganisationStore is the subset of repositories.OrganisationRepository the services use.
type OrganisationStore interface {
	RegisterOrganisation(ctx context.Context, org *models.Organisation, admin *models.User) error
	GetOrganisationByID(ctx context.Context, id string) (*models.Organisation, error)
	ListOrganisations(ctx context.Context, scope authz.OrganisationScope, search string, limit, offset int) ([]*models.OrganisationWithAdmin, int, error)
}

// ProjectStore is the subset of repositories.ProjectRepository the services use.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	ProjectNameExists(ctx context.Context, ownerID, name string) (bool, error)
	ListProjects(ctx context.Context, scope authz.ProjectScope, limit, offset int) ([]*models.Project, int, error)
	UpdateTeamMembers(ctx context.Context, projectID string, members []string, expectedVersion int) (int, error)
}

// TaskStore is the subset of repositories.TaskRepository the services use.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	ListTasksByProject(ctx context.Context, projectID string) ([]*models.Task, error)
}

// TaskStatusStore is the subset of repositories.TaskStatusRepository the services use.
type TaskStatusStore interface {
	CreateTaskStatus(ctx context.Context, status *models.TaskStatus) error
	ListTaskStatuses(ctx context.Context, projectID string) ([]*models.TaskStatus, error)
}

// ProfileStore is the subset of repositories.ProfileRepository the services use.
type ProfileStore interface {
	UpsertBasicInfo(ctx context.Context, info *models.UserBasicInfo) error
	GetBasicInfo(ctx context.Context, userID string) (*models.UserBasicInfo, error)
	CreateEducation(ctx context.Context, e *models.UserEducation) error
	ListEducation(ctx context.Context, userID string) ([]*models.UserEducation, error)
	UpdateEducation(ctx context.Context, e *models.UserEducation) (bool, error)
	DeleteEducation(ctx context.Context, userID, id string) (bool, error)
	CreateProfession(ctx context.Context, p *models.UserProfession) error
	ListProfessions(ctx context.Context, userID string) ([]*models.UserProfession, error)
	UpdateProfession(ctx context.Context, p *models.UserProfession) (bool, error)
	DeleteProfession(ctx context.Context, userID, id string) (bool, error)
}

// AuditStore reads the audit trail.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, filters repositories.AuditFilters, limit, offset int) ([]*models.AuditLog, int, error)
}

// Notifier sends the transactional emails. mail.Mailer implements it.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, name, token, code string) error
	SendAccountVerified(ctx context.Context, to, name string) error
	SendOrganisationRegistered(ctx context.Context, to, name, organisation, token, code string) error
	SendInvitation(ctx context.Context, to, name, organisation, token, code, tempPassword string) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}

const notifyTimeout = 30 * time.Second

// background runs fire-and-forget work. Tests replace it with a synchronous runner.
type background func(task string, fn func())

var runInBackground background = safego.Go

// notify sends an email after the request has been answered. Delivery
// failures are logged and counted by the Notifier and never fail the request.
func (b background) notify(task string, send func(ctx context.Context) error) {
	b(task, func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		_ = send(ctx)
	})
}

// loadActor fetches the acting user. A token whose user no longer exists is
// treated as unauthorized.
func loadActor(ctx context.Context, users UserStore, actorID string) (*models.User, *Result) {
	actor, err := users.GetUserByID(ctx, actorID)
	if err != nil {
		r := internalError("load acting user", err)
		return nil, &r
	}
	if actor == nil {
		r := failure(http.StatusUnauthorized, MsgUnauthorized)
		return nil, &r
	}
	return actor, nil
}
