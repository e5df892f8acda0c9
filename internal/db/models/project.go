// Package models - project.go defines projects, their classification enums and
// the attachment lists shared with tasks.
package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/worknest/worknest/internal/authz"
)

type ProjectTypeName string

const (
	ProjectTypeDevelopment   ProjectTypeName = "Development"
	ProjectTypeDesign        ProjectTypeName = "Design"
	ProjectTypeMarketing     ProjectTypeName = "Marketing"
	ProjectTypeResearch      ProjectTypeName = "Research"
	ProjectTypeOperations    ProjectTypeName = "Operations"
	ProjectTypeTesting       ProjectTypeName = "Testing"
	ProjectTypeDocumentation ProjectTypeName = "Documentation"
	ProjectTypeOther         ProjectTypeName = "Other"
)

var projectTypes = []ProjectTypeName{
	ProjectTypeDevelopment, ProjectTypeDesign, ProjectTypeMarketing, ProjectTypeResearch,
	ProjectTypeOperations, ProjectTypeTesting, ProjectTypeDocumentation, ProjectTypeOther,
}

func (t ProjectTypeName) Valid() bool { return lo.Contains(projectTypes, t) }

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "Active"
	ProjectStatusCompleted ProjectStatus = "Completed"
	ProjectStatusArchived  ProjectStatus = "Archived"
	ProjectStatusOnHold    ProjectStatus = "On Hold"
)

var projectStatuses = []ProjectStatus{
	ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived, ProjectStatusOnHold,
}

func (s ProjectStatus) Valid() bool { return lo.Contains(projectStatuses, s) }

// Priority is shared by projects and tasks.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool { return lo.Contains(priorities, p) }

// ProjectType is the classification plus a free-text label when PType is Other.
type ProjectType struct {
	PType     ProjectTypeName `db:"project_type" json:"pType"`
	OtherType *string         `db:"other_type" json:"otherType"`
}

// ProjectDetails holds access settings.
type ProjectDetails struct {
	Restricted bool   `db:"restricted" json:"restricted"`
	ManagerID  string `db:"manager_id" json:"managerId"`
}

// Attachments are external links and uploaded file paths.
type Attachments struct {
	URLs  pq.StringArray `db:"attachment_urls" json:"urls"`
	Files pq.StringArray `db:"attachment_files" json:"files"`
}

// Project is owned by the user who created it. Version increments on every
// team membership change and guards concurrent updates.
type Project struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    *string        `db:"description" json:"description"`
	ProjectType    `json:"projectType"`
	ProjectDetails `json:"projectDetails"`
	Logo           *string        `db:"logo" json:"logo"`
	OwnerID        string         `db:"owner_id" json:"ownerId"`
	TeamMembers    pq.StringArray `db:"team_members" json:"teamMembers"`
	Status         ProjectStatus  `db:"status" json:"status"`
	Priority       Priority       `db:"priority" json:"priority"`
	StartDate      time.Time      `db:"start_date" json:"startDate"`
	EndDate        *time.Time     `db:"end_date" json:"endDate"`
	Progress       float64        `db:"progress" json:"progress"`
	Attachments    `json:"attachments"`
	Version        int       `db:"version" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Ref returns the authorization view of the project.
func (p *Project) Ref() authz.ProjectRef {
	return authz.ProjectRef{
		OwnerID:     p.OwnerID,
		ManagerID:   p.ManagerID,
		TeamMembers: []string(p.TeamMembers),
		Restricted:  p.Restricted,
	}
}
