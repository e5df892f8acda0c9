// Package models - user.go defines the User account model with its organisation
// membership and account confirmation sub-records.
package models

import (
	"time"

	"github.com/worknest/worknest/internal/authz"
)

// User represents an account
type User struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	EmailAddress        string     `db:"email_address" json:"emailAddress"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                authz.Role `db:"role" json:"role"`
	Membership          `json:"organisation"`
	AccountConfirmation `json:"accountConfirmation"`
	PasswordReset       `json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt"`
	Consent             bool       `db:"consent" json:"consent"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// Membership is a user's association with an organisation.
// OrganisationID is nil whenever IsAssociated is false.
type Membership struct {
	IsAssociated     bool        `db:"is_associated" json:"isAssociated"`
	OrganisationID   *string     `db:"organisation_id" json:"organisationId"`
	OrganisationRole *authz.Role `db:"organisation_role" json:"role"`
}

// NoMembership is the membership of a user outside any organisation.
func NoMembership() Membership {
	return Membership{}
}

// MemberOf builds an associated membership.
func MemberOf(organisationID string, role authz.Role) Membership {
	return Membership{IsAssociated: true, OrganisationID: &organisationID, OrganisationRole: &role}
}

// Consistent reports whether the membership satisfies the association invariant.
func (m Membership) Consistent() bool {
	if !m.IsAssociated {
		return m.OrganisationID == nil
	}
	return m.OrganisationID != nil && *m.OrganisationID != ""
}

// OrgID returns the organisation id or "" when unassociated.
func (m Membership) OrgID() string {
	if !m.IsAssociated || m.OrganisationID == nil {
		return ""
	}
	return *m.OrganisationID
}

// AccountConfirmation tracks the email confirmation state.
type AccountConfirmation struct {
	Confirmed   bool       `db:"confirmation_status" json:"status"`
	Token       string     `db:"confirmation_token" json:"-"`
	Code        string     `db:"confirmation_code" json:"-"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"timestamp"`
}

// PasswordReset tracks password reset state.
type PasswordReset struct {
	ResetToken  *string    `db:"password_reset_token"`
	ResetExpiry *time.Time `db:"password_reset_expiry"`
	LastResetAt *time.Time `db:"password_last_reset_at"`
}

// Actor returns the authorization view of the user.
func (u *User) Actor() authz.Actor {
	a := authz.Actor{
		ID:         u.ID,
		Role:       u.Role,
		Associated: u.IsAssociated,
	}
	if u.IsAssociated {
		a.OrganisationID = u.OrgID()
		if u.OrganisationRole != nil {
			a.OrganisationRole = *u.OrganisationRole
		}
	}
	return a
}

// UserSummary is the public projection of a user used in listings.
type UserSummary struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	EmailAddress string     `db:"email_address" json:"emailAddress"`
	Role         authz.Role `db:"role" json:"role"`
	Membership   `json:"organisation"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
