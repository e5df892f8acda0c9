// Package authz holds the authorization rules for organisations, users, projects
// and tasks. Every function here is a pure decision over already-loaded data:
// callers resolve referenced entities first (reporting missing ones as not
// found) and then ask authz whether the actor may proceed.
package authz

import (
	"errors"
	"fmt"
)

// Role is a closed enumeration of global and organisation-scoped roles.
type Role string

const (
	RoleMasterAdmin Role = "Master Admin"
	RoleAdmin       Role = "Admin"
	RoleManager     Role = "Manager"
	RoleUser        Role = "User"

	RoleOrgAdmin   Role = "Organisation Admin"
	RoleOrgManager Role = "Organisation Manager"
	RoleOrgUser    Role = "Organisation User"
)

var allRoles = []Role{
	RoleMasterAdmin, RoleAdmin, RoleManager, RoleUser,
	RoleOrgAdmin, RoleOrgManager, RoleOrgUser,
}

// ErrUnknownRole is returned by ParseRole for values outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a stored or submitted role string. There is no implicit
// fallback: an empty or unknown value is an error.
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// IsOrganisationRole reports whether r is scoped to an organisation.
func (r Role) IsOrganisationRole() bool {
	return r == RoleOrgAdmin || r == RoleOrgManager || r == RoleOrgUser
}

// IsPlatformRole reports whether r grants platform-wide administration.
func (r Role) IsPlatformRole() bool {
	return r == RoleMasterAdmin || r == RoleAdmin
}

// EmployeeRoles are the organisation roles an Organisation Admin may assign
// when inviting an employee.
var EmployeeRoles = []Role{RoleOrgUser, RoleOrgManager}

// DefaultEmployeeRole is assigned when an invitation does not name a role.
const DefaultEmployeeRole = RoleOrgUser

// ParseEmployeeRole validates an invitation role. An empty value selects
// DefaultEmployeeRole; anything other than an employee role is rejected.
func ParseEmployeeRole(s string) (Role, error) {
	if s == "" {
		return DefaultEmployeeRole, nil
	}
	r, err := ParseRole(s)
	if err != nil {
		return "", err
	}
	for _, allowed := range EmployeeRoles {
		if r == allowed {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q cannot be assigned to an employee", ErrInvalid, s)
}
