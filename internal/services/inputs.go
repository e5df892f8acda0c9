package services

import (
	"time"

	"github.com/worknest/worknest/internal/db/models"
)

// Request bodies. Handlers bind them with gin; the `password` rule is
// registered by the api package. Registration reads the consent flag from the
// `conscent` field, which is the name clients already send.

type RegisterUserInput struct {
	Name         string `json:"name" binding:"required,min=2,max=72"`
	EmailAddress string `json:"emailAddress" binding:"required,email"`
	Password     string `json:"password" binding:"required,password"`
	Consent      bool   `json:"conscent"`
}

type LoginInput struct {
	EmailAddress string `json:"emailAddress" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
}

type BasicInfoInput struct {
	Bio         *string             `json:"bio" binding:"omitempty,max=1000"`
	SocialLinks []models.SocialLink `json:"socialLinks" binding:"omitempty,dive"`
}

type GradeInput struct {
	Type  *string `json:"type"`
	Value *string `json:"value"`
}

type EducationInput struct {
	InstitutionName string     `json:"institutionName" binding:"required"`
	Degree          string     `json:"degree" binding:"required"`
	Grade           GradeInput `json:"grade"`
	StartDate       time.Time  `json:"startDate" binding:"required"`
	EndDate         *time.Time `json:"endDate"`
	IsPresent       bool       `json:"isPresent"`
}

type ProfessionInput struct {
	OrganizationName string     `json:"organizationName" binding:"required"`
	Role             string     `json:"role" binding:"required"`
	Position         *string    `json:"position"`
	StartDate        time.Time  `json:"startDate" binding:"required"`
	EndDate          *time.Time `json:"endDate"`
	IsPresent        bool       `json:"isPresent"`
}

type RegisterOrganisationInput struct {
	Name               string  `json:"name" binding:"required,min=2,max=72"`
	EmailAddress       string  `json:"emailAddress" binding:"required,email"`
	Logo               *string `json:"logo" binding:"omitempty,url"`
	Website            *string `json:"website" binding:"omitempty,url"`
	RegistrationNumber string  `json:"registrationNumber" binding:"required"`
	AdminName          string  `json:"adminName" binding:"required,min=2,max=72"`
	Password           string  `json:"password" binding:"required,password"`
	Consent            bool    `json:"conscent"`
}

type AddEmployeeInput struct {
	OrganizationID string `json:"organizationId" binding:"required"`
	Name           string `json:"name" binding:"required,min=2,max=72"`
	EmailAddress   string `json:"emailAddress" binding:"required,email"`
	// Role is optional; the default is applied by AddEmployee.
	Role string `json:"role"`
}

type AcceptInvitationInput struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type ProjectTypeInput struct {
	PType     models.ProjectTypeName `json:"pType" binding:"required,oneof=Development Design Marketing Research Operations Testing Documentation Other"`
	OtherType *string                `json:"otherType"`
}

type ProjectDetailsInput struct {
	Restricted bool   `json:"restricted"`
	ManagerID  string `json:"managerId" binding:"required"`
}

type AttachmentsInput struct {
	URLs  []string `json:"urls" binding:"omitempty,dive,url"`
	Files []string `json:"files"`
}

type CreateProjectInput struct {
	Name           string               `json:"name" binding:"required,max=120"`
	Description    *string              `json:"description"`
	ProjectType    ProjectTypeInput     `json:"projectType" binding:"required"`
	ProjectDetails ProjectDetailsInput  `json:"projectDetails" binding:"required"`
	Logo           *string              `json:"logo"`
	TeamMemberIDs  []string             `json:"teamMemberIds" binding:"omitempty,dive,required"`
	Status         models.ProjectStatus `json:"status" binding:"required,oneof=Active Completed Archived 'On Hold'"`
	Priority       models.Priority      `json:"priority" binding:"required,oneof=Low Medium High Critical"`
	Attachments    AttachmentsInput     `json:"attachments"`
}

type TeamMembersInput struct {
	ProjectID     string   `json:"projectId" binding:"required"`
	TeamMemberIDs []string `json:"teamMemberIds" binding:"required,min=1,dive,required"`
}

type StatusDetailsInput struct {
	Status   string `json:"status" binding:"required,max=64"`
	Position int    `json:"position" binding:"min=0,max=32767"`
}

type CreateTaskStatusInput struct {
	ProjectID     string             `json:"projectId" binding:"required"`
	StatusDetails StatusDetailsInput `json:"statusDetails" binding:"required"`
}

type CreateTaskInput struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description *string          `json:"description"`
	AssignedTo  *string          `json:"assignedTo"`
	ProjectID   string           `json:"projectId" binding:"required"`
	ExpiryTime  *time.Time       `json:"expiryTime"`
	Priority    models.Priority  `json:"priority" binding:"required,oneof=Low Medium High Critical"`
	Attachments AttachmentsInput `json:"attachments"`
}

func (a AttachmentsInput) toModel() models.Attachments {
	out := models.Attachments{URLs: a.URLs, Files: a.Files}
	if out.URLs == nil {
		out.URLs = []string{}
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	return out
}
