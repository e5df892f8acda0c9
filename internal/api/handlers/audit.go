package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/services"
)

// AuditOperations is the part of services.AuditService the handlers use.
type AuditOperations interface {
	List(ctx context.Context, actorID string, p services.Pagination, q services.AuditQuery) services.Result
}

// AuditHandlers handles the audit log endpoint
type AuditHandlers struct {
	logs AuditOperations
	out  response.Writer
}

// NewAuditHandlers creates a new AuditHandlers instance
func NewAuditHandlers(logs AuditOperations, out response.Writer) *AuditHandlers {
	return &AuditHandlers{logs: logs, out: out}
}

// @Summary      List audit logs
// @Description  Master Admins see every entry, Organisation Admins their organisation's.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        page          query  int     false  "Page number (default 1)"
// @Param        limit         query  int     false  "Items per page, max 100 (default 10)"
// @Param        action        query  string  false  "Exact action, e.g. POST /api/v1/project/create"
// @Param        resourceType  query  string  false  "organisation, project, task, user or file"
// @Param        userId        query  string  false  "Acting user"
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Router       /api/v1/audit/logs [get]
// ListHandler lists audit log entries
// GET /api/v1/audit/logs
func (h *AuditHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := pagination(c, h.out)
		if !ok {
			return
		}
		q := services.AuditQuery{
			Action:       c.Query("action"),
			ResourceType: c.Query("resourceType"),
			UserID:       c.Query("userId"),
		}
		h.out.FromResult(c, h.logs.List(c.Request.Context(), actorID(c), p, q))
	}
}
