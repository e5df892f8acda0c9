package authz

// AuditScope restricts an audit log listing. An empty OrganisationID means
// every entry is visible.
type AuditScope struct {
	OrganisationID string
}

// AuditListScope lets Master Admin read the whole trail and an Organisation
// Admin read the entries recorded inside their organisation.
func AuditListScope(a Actor) (AuditScope, error) {
	if a.Role == RoleMasterAdmin {
		return AuditScope{}, nil
	}
	if a.Associated && a.OrganisationID != "" && a.EffectiveRole() == RoleOrgAdmin {
		return AuditScope{OrganisationID: a.OrganisationID}, nil
	}
	return AuditScope{}, ErrUnauthorized
}
