package authz

// OrganisationScope restricts an organisation listing.
type OrganisationScope struct {
	// Unrestricted lists every organisation.
	Unrestricted bool
}

// OrganisationListScope maps the actor's global role to the organisations they
// may list. Admin currently receives the same unrestricted scope as Master Admin.
func OrganisationListScope(a Actor) (OrganisationScope, error) {
	switch a.Role {
	case RoleMasterAdmin:
		return OrganisationScope{Unrestricted: true}, nil
	case RoleAdmin:
		return OrganisationScope{Unrestricted: true}, nil
	default:
		return OrganisationScope{}, ErrUnauthorized
	}
}

// CanViewOrganisation requires the actor to belong to orgID and to hold
// something other than the plain User global role.
func CanViewOrganisation(a Actor, orgID string) error {
	if !a.InOrganisation(orgID) {
		return ErrUnauthorized
	}
	if a.Role == RoleUser {
		return ErrUnauthorized
	}
	return nil
}

// CanAddEmployee requires the actor to be the Organisation Admin of orgID.
func CanAddEmployee(a Actor, orgID string) error {
	if !a.InOrganisation(orgID) || a.EffectiveRole() != RoleOrgAdmin {
		return ErrUnauthorized
	}
	return nil
}
