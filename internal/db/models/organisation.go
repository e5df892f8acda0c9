// Package models - organisation.go defines the Organisation tenant model.
package models

import "time"

// Organisation is a tenant. Exactly one user, AdminID, is its Organisation Admin.
type Organisation struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	EmailAddress       string    `db:"email_address" json:"emailAddress"`
	Logo               *string   `db:"logo" json:"logo"`
	Website            *string   `db:"website" json:"website"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber"`
	AdminID            string    `db:"admin_id" json:"adminId"`
	Consent            bool      `db:"consent" json:"consent"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// OrganisationWithAdmin is an organisation listing row with its admin's name.
type OrganisationWithAdmin struct {
	Organisation
	AdminName string `db:"admin_name" json:"adminName"`
}
