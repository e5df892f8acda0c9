// organisation.go implements the organisation endpoints: registration,
// employee invitations and organisation lookups.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/services"
)

// OrganisationOperations is the part of services.OrganisationService the handlers use.
type OrganisationOperations interface {
	Register(ctx context.Context, in services.RegisterOrganisationInput) services.Result
	AddEmployee(ctx context.Context, actorID string, in services.AddEmployeeInput) services.Result
	AcceptInvitation(ctx context.Context, token, code string, in services.AcceptInvitationInput) services.Result
	List(ctx context.Context, actorID string, p services.Pagination, search string) services.Result
	Details(ctx context.Context, actorID, orgID string) services.Result
}

// OrganisationHandlers handles the /organisation endpoints
type OrganisationHandlers struct {
	orgs OrganisationOperations
	out  response.Writer
}

// NewOrganisationHandlers creates a new OrganisationHandlers instance
func NewOrganisationHandlers(orgs OrganisationOperations, out response.Writer) *OrganisationHandlers {
	return &OrganisationHandlers{orgs: orgs, out: out}
}

// @Summary      Register organisation
// @Description  Create an organisation together with its Organisation Admin account.
// @Tags         Organisation
// @Accept       json
// @Produce      json
// @Param        body  body  services.RegisterOrganisationInput  true  "Organisation and admin"
// @Success      201  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope  "Validation failed or email in use"
// @Router       /api/v1/organisation/create [post]
// RegisterHandler registers an organisation
// POST /api/v1/organisation/create
func (h *OrganisationHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.RegisterOrganisationInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.orgs.Register(c.Request.Context(), in))
	}
}

// @Summary      Invite employee
// @Description  Create an employee account with a temporary password and email the invitation.
// @Tags         Organisation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  services.AddEmployeeInput  true  "Employee"
// @Success      201  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope  "Invalid role"
// @Failure      401  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope  "Organisation not found"
// @Failure      422  {object}  response.Envelope  "Email in use"
// @Router       /api/v1/organisation/addEmployee [post]
// AddEmployeeHandler invites an employee
// POST /api/v1/organisation/addEmployee
func (h *OrganisationHandlers) AddEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.AddEmployeeInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.orgs.AddEmployee(c.Request.Context(), actorID(c), in))
	}
}

// AcceptInvitationHandler sets the invited employee's own password
// POST /api/v1/organisation/invitation/:token?code=
func (h *OrganisationHandlers) AcceptInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.AcceptInvitationInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.orgs.AcceptInvitation(c.Request.Context(), c.Param("token"), c.Query("code"), in))
	}
}

// ListHandler GET /api/v1/organisation/getAll?page=1&limit=10&search=
func (h *OrganisationHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := pagination(c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.orgs.List(c.Request.Context(), actorID(c), p, c.Query("search")))
	}
}

// DetailsHandler GET /api/v1/organisation/detail/:organizationId
func (h *OrganisationHandlers) DetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.orgs.Details(c.Request.Context(), actorID(c), c.Param("organizationId")))
	}
}
