// project.go implements the project endpoints and the task endpoints that
// hang off a project.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/services"
)

// ProjectOperations is the part of services.ProjectService the handlers use.
type ProjectOperations interface {
	Create(ctx context.Context, actorID string, in services.CreateProjectInput) services.Result
	List(ctx context.Context, actorID string, p services.Pagination) services.Result
	Get(ctx context.Context, actorID, projectID string) services.Result
	AddMembers(ctx context.Context, actorID string, in services.TeamMembersInput) services.Result
	RemoveMembers(ctx context.Context, actorID string, in services.TeamMembersInput) services.Result
}

// TaskOperations is the part of services.TaskService the handlers use.
type TaskOperations interface {
	CreateStatus(ctx context.Context, actorID string, in services.CreateTaskStatusInput) services.Result
	Create(ctx context.Context, actorID string, in services.CreateTaskInput) services.Result
	ListTasks(ctx context.Context, actorID, projectID string) services.Result
	ListStatuses(ctx context.Context, actorID, projectID string) services.Result
}

// ProjectHandlers handles the /project and /task endpoints
type ProjectHandlers struct {
	projects ProjectOperations
	tasks    TaskOperations
	out      response.Writer
}

// NewProjectHandlers creates a new ProjectHandlers instance
func NewProjectHandlers(projects ProjectOperations, tasks TaskOperations, out response.Writer) *ProjectHandlers {
	return &ProjectHandlers{projects: projects, tasks: tasks, out: out}
}

// @Summary      Create project
// @Tags         Project
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  services.CreateProjectInput  true  "Project"
// @Success      201  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope  "Duplicate name or missing other type"
// @Failure      401  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope  "Manager or member not found"
// @Router       /api/v1/project/create [post]
// CreateHandler creates a project owned by the caller
// POST /api/v1/project/create
func (h *ProjectHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.CreateProjectInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.projects.Create(c.Request.Context(), actorID(c), in))
	}
}

// ListHandler GET /api/v1/project/getAll?page=1&limit=10
func (h *ProjectHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := pagination(c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.projects.List(c.Request.Context(), actorID(c), p))
	}
}

// GetHandler GET /api/v1/project/get/:projectId
func (h *ProjectHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.projects.Get(c.Request.Context(), actorID(c), c.Param("projectId")))
	}
}

// AddMembersHandler PUT /api/v1/project/addMembers
func (h *ProjectHandlers) AddMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.TeamMembersInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.projects.AddMembers(c.Request.Context(), actorID(c), in))
	}
}

// RemoveMembersHandler PUT /api/v1/project/removeMembers
func (h *ProjectHandlers) RemoveMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.TeamMembersInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.projects.RemoveMembers(c.Request.Context(), actorID(c), in))
	}
}

// CreateTaskStatusHandler adds a board column to a project
// POST /api/v1/task/status/create
func (h *ProjectHandlers) CreateTaskStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.CreateTaskStatusInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.tasks.CreateStatus(c.Request.Context(), actorID(c), in))
	}
}

// CreateTaskHandler POST /api/v1/task/create
func (h *ProjectHandlers) CreateTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bind[services.CreateTaskInput](c, h.out)
		if !ok {
			return
		}
		h.out.FromResult(c, h.tasks.Create(c.Request.Context(), actorID(c), in))
	}
}

// ListTasksHandler GET /api/v1/task/getAll/:projectId
func (h *ProjectHandlers) ListTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.tasks.ListTasks(c.Request.Context(), actorID(c), c.Param("projectId")))
	}
}

// ListTaskStatusesHandler GET /api/v1/task/status/:projectId
func (h *ProjectHandlers) ListTaskStatusesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.out.FromResult(c, h.tasks.ListStatuses(c.Request.Context(), actorID(c), c.Param("projectId")))
	}
}
