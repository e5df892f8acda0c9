// Package models - profile.go defines the optional user profile records:
// basic info, education history and professional history.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SocialLink is a profile link on an external platform.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// SocialLinks is stored as a JSONB array.
type SocialLinks []SocialLink

// Value implements driver.Valuer
func (s SocialLinks) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *SocialLinks) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = SocialLinks{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SocialLinks", src)
	}
	return json.Unmarshal(b, s)
}

// UserBasicInfo is the free-form part of a profile.
type UserBasicInfo struct {
	UserID      string      `db:"user_id" json:"userId"`
	Bio         *string     `db:"bio" json:"bio"`
	SocialLinks SocialLinks `db:"social_links" json:"socialLinks"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Grade is an education result such as {"CGPA", "8.9"}.
type Grade struct {
	Type  *string `db:"grade_type" json:"type"`
	Value *string `db:"grade_value" json:"value"`
}

// UserEducation is one entry of education history.
type UserEducation struct {
	ID              string `db:"id" json:"id"`
	UserID          string `db:"user_id" json:"userId"`
	InstitutionName string `db:"institution_name" json:"institutionName"`
	Degree          string `db:"degree" json:"degree"`
	Grade           `json:"grade"`
	StartDate       time.Time  `db:"start_date" json:"startDate"`
	EndDate         *time.Time `db:"end_date" json:"endDate"`
	IsPresent       bool       `db:"is_present" json:"isPresent"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// UserProfession is one entry of professional history.
type UserProfession struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"userId"`
	OrganizationName string     `db:"organization_name" json:"organizationName"`
	Role             string     `db:"role" json:"role"`
	Position         *string    `db:"position" json:"position"`
	StartDate        time.Time  `db:"start_date" json:"startDate"`
	EndDate          *time.Time `db:"end_date" json:"endDate"`
	IsPresent        bool       `db:"is_present" json:"isPresent"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}
