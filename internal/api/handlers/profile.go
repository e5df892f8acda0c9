// profile.go implements the profile endpoints under /user: basic info,
// education and profession history.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/services"
)

// ProfileOperations is the part of services.ProfileService the handlers use.
type ProfileOperations interface {
	UpdateBasicInfo(ctx context.Context, actorID string, in services.BasicInfoInput) services.Result
	GetBasicInfo(ctx context.Context, userID string) services.Result
	CreateEducation(ctx context.Context, actorID string, in services.EducationInput) services.Result
	ListEducation(ctx context.Context, userID string) services.Result
	UpdateEducation(ctx context.Context, actorID, educationID string, in services.EducationInput) services.Result
	DeleteEducation(ctx context.Context, actorID, educationID string) services.Result
	CreateProfession(ctx context.Context, actorID string, in services.ProfessionInput) services.Result
	ListProfessions(ctx context.Context, userID string) services.Result
	UpdateProfession(ctx context.Context, actorID, professionID string, in services.ProfessionInput) services.Result
	DeleteProfession(ctx context.Context, actorID, professionID string) services.Result
}

// ProfileHandlers handles the profile endpoints
type ProfileHandlers struct {
	profiles ProfileOperations
	out      response.Writer
}

// NewProfileHandlers creates a new ProfileHandlers instance
func NewProfileHandlers(profiles ProfileOperations, out response.Writer) *ProfileHandlers {
	return &ProfileHandlers{profiles: profiles, out: out}
}

// profileOwner is the userId query value, defaulting to the caller.
func profileOwner(c *gin.Context) string {
	if id := c.Query("userId"); id != "" {
		return id
	}
	return actorID(c)
}

// bind decodes the JSON body into in and writes a 422 on failure.
func bind[T any](c *gin.Context, out response.Writer) (T, bool) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		out.BindError(c, err)
		return in, false
	}
	return in, true
}

// UpdateBasicInfoHandler replaces the caller's bio and social links
// PUT /api/v1/user/basicInfo
func (h *ProfileHandlers) UpdateBasicInfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.BasicInfoInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.profiles.UpdateBasicInfo(c.Request.Context(), actorID(c), in))
	}
}

// GetBasicInfoHandler returns a user's basic info
// GET /api/v1/user/basicInfo?userId=
func (h *ProfileHandlers) GetBasicInfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.profiles.GetBasicInfo(c.Request.Context(), profileOwner(c)))
	}
}

// CreateEducationHandler adds an education entry for the caller
// POST /api/v1/user/education
func (h *ProfileHandlers) CreateEducationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.EducationInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.profiles.CreateEducation(c.Request.Context(), actorID(c), in))
	}
}

// ListEducationHandler GET /api/v1/user/education?userId=
func (h *ProfileHandlers) ListEducationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.profiles.ListEducation(c.Request.Context(), profileOwner(c)))
	}
}

// UpdateEducationHandler PUT /api/v1/user/education/:educationId
func (h *ProfileHandlers) UpdateEducationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.EducationInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.profiles.UpdateEducation(c.Request.Context(), actorID(c), c.Param("educationId"), in))
	}
}

// DeleteEducationHandler DELETE /api/v1/user/education/:educationId
func (h *ProfileHandlers) DeleteEducationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.profiles.DeleteEducation(c.Request.Context(), actorID(c), c.Param("educationId")))
	}
}

// CreateProfessionHandler adds a profession entry for the caller
// POST /api/v1/user/profession
func (h *ProfileHandlers) CreateProfessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.ProfessionInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.profiles.CreateProfession(c.Request.Context(), actorID(c), in))
	}
}

// ListProfessionsHandler GET /api/v1/user/profession?userId=
func (h *ProfileHandlers) ListProfessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.profiles.ListProfessions(c.Request.Context(), profileOwner(c)))
	}
}

// UpdateProfessionHandler PUT /api/v1/user/profession/:professionId
func (h *ProfileHandlers) UpdateProfessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.ProfessionInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.profiles.UpdateProfession(c.Request.Context(), actorID(c), c.Param("professionId"), in))
	}
}

// DeleteProfessionHandler DELETE /api/v1/user/profession/:professionId
func (h *ProfileHandlers) DeleteProfessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.profiles.DeleteProfession(c.Request.Context(), actorID(c), c.Param("professionId")))
	}
}
