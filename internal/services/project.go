package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
	"github.com/worknest/worknest/internal/telemetry"
)

// maxMemberUpdateAttempts bounds the compare-and-swap loop on team membership.
const maxMemberUpdateAttempts = 3

// ProjectService handles project creation, listing and team membership.
type ProjectService struct {
	projects ProjectStore
	users    UserStore
	now      func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects ProjectStore, users UserStore) *ProjectService {
	return &ProjectService{projects: projects, users: users, now: time.Now}
}

// loadUsers resolves ids to users in request order. The second return value
// names the first id that does not exist.
func loadUsers(ctx context.Context, users UserStore, ids []string) ([]*models.User, string, error) {
	if len(ids) == 0 {
		return nil, "", nil
	}
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	byID := lo.KeyBy(found, func(u *models.User) string { return u.ID })
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, id, nil
		}
		out = append(out, u)
	}
	return out, "", nil
}

func actors(users []*models.User) []authz.Actor {
	return lo.Map(users, func(u *models.User, _ int) authz.Actor { return u.Actor() })
}

// Create makes the actor the owner of a new project. An owner outside any
// organisation always manages their own project and starts without a team; an
// organisation owner must be its admin and staff the project from the same
// organisation.
func (s *ProjectService) Create(ctx context.Context, actorID string, in CreateProjectInput) Result {
	owner, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return internalError("load owner", err)
	}
	if owner == nil {
		return failure(http.StatusNotFound, NotFound("Owner"))
	}

	name := strings.TrimSpace(in.Name)
	exists, err := s.projects.ProjectNameExists(ctx, owner.ID, name)
	if err != nil {
		return internalError("check project name", err)
	}
	if exists {
		return failure(http.StatusBadRequest, AlreadyInUse("Project name"))
	}

	if in.ProjectType.PType == models.ProjectTypeOther &&
		(in.ProjectType.OtherType == nil || strings.TrimSpace(*in.ProjectType.OtherType) == "") {
		return failure(http.StatusBadRequest, MsgOtherTypeRequired)
	}

	manager, err := s.users.GetUserByID(ctx, in.ProjectDetails.ManagerID)
	if err != nil {
		return internalError("load manager", err)
	}
	if manager == nil {
		return failure(http.StatusNotFound, NotFound("Manager"))
	}

	// A solo owner's project starts with no team; submitted members are ignored.
	memberIDs := []string{}
	if owner.IsAssociated {
		memberIDs = lo.Uniq(in.TeamMemberIDs)
	}
	members, missing, err := loadUsers(ctx, s.users, memberIDs)
	if err != nil {
		return internalError("load team members", err)
	}
	if missing != "" {
		return failure(http.StatusNotFound, NotFound("Member"))
	}

	if err := authz.CheckProjectCreation(owner.Actor(), manager.Actor(), actors(members)); err != nil {
		return denied("project.create", err)
	}

	managerID := manager.ID
	if !owner.IsAssociated {
		managerID = owner.ID
	}

	project := &models.Project{
		Name:        name,
		Description: in.Description,
		ProjectType: models.ProjectType{PType: in.ProjectType.PType, OtherType: in.ProjectType.OtherType},
		ProjectDetails: models.ProjectDetails{
			Restricted: in.ProjectDetails.Restricted,
			ManagerID:  managerID,
		},
		Logo:        in.Logo,
		OwnerID:     owner.ID,
		TeamMembers: memberIDs,
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   s.now().UTC(),
		Progress:    0,
		Attachments: in.Attachments.toModel(),
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return failure(http.StatusBadRequest, AlreadyInUse("Project name"))
		}
		return internalError("create project", err)
	}
	return success(http.StatusCreated, MsgSuccess, payload{"projectDetails": project})
}

// List returns one page of the projects related to the actor by their role.
func (s *ProjectService) List(ctx context.Context, actorID string, p Pagination) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	scope, err := authz.ProjectListScope(actor.Actor())
	if err != nil {
		return denied("project.list", err)
	}
	projects, total, err := s.projects.ListProjects(ctx, scope, p.Limit, p.Offset())
	if err != nil {
		return internalError("list projects", err)
	}
	return success(http.StatusOK, MsgSuccess, pagedList("projects", projects, total, p))
}

// loadProject fetches a project for an authorization decision.
func loadProject(ctx context.Context, projects ProjectStore, projectID string) (*models.Project, *Result) {
	project, err := projects.GetProjectByID(ctx, projectID)
	if err != nil {
		r := internalError("load project", err)
		return nil, &r
	}
	if project == nil {
		r := failure(http.StatusNotFound, NotFound("Project"))
		return nil, &r
	}
	return project, nil
}

// Get returns one project to its owner, manager or a team member.
func (s *ProjectService) Get(ctx context.Context, actorID, projectID string) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	project, res := loadProject(ctx, s.projects, projectID)
	if res != nil {
		return *res
	}
	if err := authz.CanViewProject(actor.Actor(), project.Ref()); err != nil {
		return denied("project.view", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"project": project})
}

// memberChange computes the new team from the current project, or returns a
// Result when the change is not allowed.
type memberChange func(actor *models.User, project *models.Project) ([]string, *Result)

// AddMembers adds Organisation Users to the team. Candidates are resolved only
// once the actor is known to manage the project.
func (s *ProjectService) AddMembers(ctx context.Context, actorID string, in TeamMembersInput) Result {
	ids := lo.Uniq(in.TeamMemberIDs)
	var candidates []*models.User
	return s.updateMembers(ctx, actorID, in.ProjectID, "project.add_members", func(actor *models.User, project *models.Project) ([]string, *Result) {
		if candidates == nil {
			found, missing, err := loadUsers(ctx, s.users, ids)
			if err != nil {
				r := internalError("load team members", err)
				return nil, &r
			}
			if missing != "" {
				r := failure(http.StatusNotFound, NotFound("Member"))
				return nil, &r
			}
			candidates = found
		}
		if err := authz.CheckMemberAddition(actor.Actor(), project.Ref(), actors(candidates)); err != nil {
			r := denied("project.add_members", err)
			return nil, &r
		}
		return append(append([]string{}, project.TeamMembers...), ids...), nil
	})
}

// RemoveMembers removes current members from the team.
func (s *ProjectService) RemoveMembers(ctx context.Context, actorID string, in TeamMembersInput) Result {
	ids := lo.Uniq(in.TeamMemberIDs)
	return s.updateMembers(ctx, actorID, in.ProjectID, "project.remove_members", func(_ *models.User, project *models.Project) ([]string, *Result) {
		if err := authz.CheckMemberRemoval(project.Ref(), ids); err != nil {
			r := denied("project.remove_members", err)
			return nil, &r
		}
		return lo.Without([]string(project.TeamMembers), ids...), nil
	})
}

// updateMembers applies change with compare-and-swap on the project version.
// A lost race reloads the project and re-evaluates every rule before retrying.
func (s *ProjectService) updateMembers(ctx context.Context, actorID, projectID, action string, change memberChange) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}

	for attempt := 1; attempt <= maxMemberUpdateAttempts; attempt++ {
		project, res := loadProject(ctx, s.projects, projectID)
		if res != nil {
			return *res
		}
		if err := authz.CanManageMembers(actor.Actor(), project.Ref()); err != nil {
			return denied(action, err)
		}
		members, res := change(actor, project)
		if res != nil {
			return *res
		}

		version, err := s.projects.UpdateTeamMembers(ctx, project.ID, members, project.Version)
		if errors.Is(err, repositories.ErrVersionConflict) {
			telemetry.TeamMemberConflictsTotal.Inc()
			continue
		}
		if err != nil {
			return internalError("update team members", err)
		}
		project.TeamMembers = members
		project.Version = version
		return success(http.StatusOK, MsgSuccess, payload{"project": project})
	}
	return failure(http.StatusConflict, MsgConcurrentModification)
}
