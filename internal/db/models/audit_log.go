// Package models - audit_log.go defines the AuditLog model recording
// authenticated mutations: actor, action, resource type, client IP and metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID             string
	UserID         *string
	OrganisationID *string
	Action         string  // "POST /api/v1/project/create"
	ResourceType   *string // "organisation", "project", "task", "user", "file"
	Metadata       map[string]interface{}
	IPAddress      *string
	CreatedAt      time.Time
}
