package authz

import "github.com/samber/lo"

// ProjectRef is the part of a project the rules depend on.
type ProjectRef struct {
	OwnerID     string
	ManagerID   string
	TeamMembers []string
	Restricted  bool
}

func (p ProjectRef) isOwner(userID string) bool   { return userID != "" && p.OwnerID == userID }
func (p ProjectRef) isManager(userID string) bool { return userID != "" && p.ManagerID == userID }

// IsMember reports whether userID is in the team.
func (p ProjectRef) IsMember(userID string) bool {
	return lo.Contains(p.TeamMembers, userID)
}

// CheckProjectCreation validates a new project's owner, manager and team.
//
// An owner without an organisation may always create a project; the caller
// makes the owner the manager in that case. An organisation-associated owner
// must be its Organisation Admin, and the manager and every team member must
// belong to the owner's organisation.
func CheckProjectCreation(owner, manager Actor, members []Actor) error {
	if !owner.Associated {
		return nil
	}
	if owner.EffectiveRole() != RoleOrgAdmin {
		return ErrUnauthorized
	}
	if !owner.SameOrganisation(manager) {
		return ErrInvalid
	}
	for _, m := range members {
		if !owner.SameOrganisation(m) {
			return ErrInvalid
		}
	}
	return nil
}

// ProjectScopeKind selects the relationship a project listing filters on.
type ProjectScopeKind int

const (
	ProjectScopeOwned ProjectScopeKind = iota + 1
	ProjectScopeManaged
	ProjectScopeMember
)

// ProjectScope restricts a project listing to projects related to UserID.
type ProjectScope struct {
	Kind   ProjectScopeKind
	UserID string
}

// ProjectListScope maps the actor's role to the projects they may list.
func ProjectListScope(a Actor) (ProjectScope, error) {
	switch a.EffectiveRole() {
	case RoleOrgAdmin, RoleUser:
		return ProjectScope{Kind: ProjectScopeOwned, UserID: a.ID}, nil
	case RoleOrgManager:
		return ProjectScope{Kind: ProjectScopeManaged, UserID: a.ID}, nil
	case RoleOrgUser:
		return ProjectScope{Kind: ProjectScopeMember, UserID: a.ID}, nil
	default:
		return ProjectScope{}, ErrUnauthorized
	}
}

// Matches reports whether p falls inside the scope.
func (s ProjectScope) Matches(p ProjectRef) bool {
	switch s.Kind {
	case ProjectScopeOwned:
		return p.isOwner(s.UserID)
	case ProjectScopeManaged:
		return p.isManager(s.UserID)
	case ProjectScopeMember:
		return p.IsMember(s.UserID)
	default:
		return false
	}
}

// CanViewProject requires a role with a project scope and a direct
// relationship to the project as owner, manager or team member.
func CanViewProject(a Actor, p ProjectRef) error {
	if _, err := ProjectListScope(a); err != nil {
		return err
	}
	if p.isOwner(a.ID) || p.isManager(a.ID) || p.IsMember(a.ID) {
		return nil
	}
	return ErrUnauthorized
}

// CanManageMembers requires an organisation-associated actor who owns or
// manages the project.
func CanManageMembers(a Actor, p ProjectRef) error {
	if !a.Associated {
		return ErrUnauthorized
	}
	if p.isOwner(a.ID) || p.isManager(a.ID) {
		return nil
	}
	return ErrUnauthorized
}

// CheckMemberAddition validates users being added to the team by a: none may
// already be a member and each must be an Organisation User of a's organisation.
func CheckMemberAddition(a Actor, p ProjectRef, candidates []Actor) error {
	for _, c := range candidates {
		if p.IsMember(c.ID) {
			return ErrInvalid
		}
		if c.EffectiveRole() != RoleOrgUser || !a.SameOrganisation(c) {
			return ErrInvalid
		}
	}
	return nil
}

// CheckMemberRemoval requires every id to be a current team member.
func CheckMemberRemoval(p ProjectRef, userIDs []string) error {
	for _, id := range userIDs {
		if !p.IsMember(id) {
			return ErrInvalid
		}
	}
	return nil
}

// CanContribute decides whether the actor may create tasks and task statuses
// in a project. Restricted projects accept only the owner and manager.
func CanContribute(a Actor, p ProjectRef) error {
	if p.isOwner(a.ID) || p.isManager(a.ID) {
		return nil
	}
	if !p.Restricted && p.IsMember(a.ID) {
		return nil
	}
	return ErrUnauthorized
}
