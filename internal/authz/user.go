package authz

// UserScopeKind selects which users a listing may return.
type UserScopeKind int

const (
	UserScopeAll UserScopeKind = iota + 1
	UserScopeExcludeMasterAdmins
	UserScopeOrganisation
)

// UserScope restricts a user listing.
type UserScope struct {
	Kind           UserScopeKind
	OrganisationID string
}

// UserListScope maps the actor's role to the users they may list.
func UserListScope(a Actor) (UserScope, error) {
	switch a.EffectiveRole() {
	case RoleMasterAdmin:
		return UserScope{Kind: UserScopeAll}, nil
	case RoleAdmin:
		return UserScope{Kind: UserScopeExcludeMasterAdmins}, nil
	case RoleOrgAdmin:
		if !a.Associated || a.OrganisationID == "" {
			return UserScope{}, ErrUnauthorized
		}
		return UserScope{Kind: UserScopeOrganisation, OrganisationID: a.OrganisationID}, nil
	default:
		return UserScope{}, ErrUnauthorized
	}
}

// CanViewUser decides whether the actor may read target's details.
//
// The Organisation Admin rule is not limited to the admin's own organisation,
// and Admin may only view Master Admins. Both match current production
// behavior and are pending product review.
func CanViewUser(a, target Actor) error {
	if a.ID != "" && a.ID == target.ID {
		return nil
	}
	switch a.EffectiveRole() {
	case RoleMasterAdmin:
		return nil
	case RoleAdmin:
		if target.EffectiveRole() == RoleMasterAdmin {
			return nil
		}
		return ErrUnauthorized
	case RoleOrgAdmin:
		switch target.EffectiveRole() {
		case RoleOrgUser, RoleOrgAdmin:
			return nil
		}
		return ErrUnauthorized
	default:
		return ErrUnauthorized
	}
}
