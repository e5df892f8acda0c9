// Package models - task.go defines tasks and per-project task statuses.
package models

import "time"

// Task belongs to a project. CurrentStatus is free text and is not checked
// against the project's TaskStatus labels.
type Task struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   *string    `db:"description" json:"description"`
	AssignedBy    string     `db:"assigned_by" json:"assignedBy"`
	AssignedTo    *string    `db:"assigned_to" json:"assignedTo"`
	ProjectID     string     `db:"project_id" json:"projectId"`
	ExpiryTime    *time.Time `db:"expiry_time" json:"expiryTime"`
	StartedAt     *time.Time `db:"started_at" json:"startedAt"`
	CompletedAt   *time.Time `db:"completed_at" json:"completedAt"`
	CurrentStatus string     `db:"current_status" json:"currentStatus"`
	Priority      Priority   `db:"priority" json:"priority"`
	Attachments   `json:"attachments"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// TaskStatus is a project-specific status label with a display position.
type TaskStatus struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"projectId"`
	Status    string    `db:"status" json:"status"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
