package authz

import "errors"

var (
	// ErrUnauthorized means a valid actor lacks permission for the action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalid means the request names a resource that cannot take part in the
	// action (wrong organisation, wrong role, already a member, not a member).
	ErrInvalid = errors.New("invalid request")
)

// Actor is the authorization view of a user: their global role plus their
// organisation membership. It is used for the requesting user and for any
// user a request refers to (a manager, a team member, a detail target).
type Actor struct {
	ID               string
	Role             Role
	Associated       bool
	OrganisationID   string
	OrganisationRole Role
}

// EffectiveRole is the role the rules are evaluated against. Platform roles
// win; otherwise an associated user acts under their organisation role.
func (a Actor) EffectiveRole() Role {
	if a.Role.IsPlatformRole() {
		return a.Role
	}
	if a.Associated && a.OrganisationRole != "" {
		return a.OrganisationRole
	}
	return a.Role
}

// InOrganisation reports whether the actor is associated with orgID.
func (a Actor) InOrganisation(orgID string) bool {
	return a.Associated && orgID != "" && a.OrganisationID == orgID
}

// SameOrganisation reports whether both actors are associated with one organisation.
func (a Actor) SameOrganisation(b Actor) bool {
	return a.Associated && b.InOrganisation(a.OrganisationID)
}
