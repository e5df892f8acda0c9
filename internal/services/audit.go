package services

import (
	"context"
	"net/http"

	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/repositories"
)

// AuditQuery holds the optional audit listing filters.
type AuditQuery struct {
	Action       string
	ResourceType string
	UserID       string
}

// AuditService reads the audit trail.
type AuditService struct {
	logs  AuditStore
	users UserStore
}

// NewAuditService creates a new AuditService
func NewAuditService(logs AuditStore, users UserStore) *AuditService {
	return &AuditService{logs: logs, users: users}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// List returns one page of audit entries, newest first. Organisation Admins
// only see entries recorded for their organisation.
func (s *AuditService) List(ctx context.Context, actorID string, p Pagination, q AuditQuery) Result {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return *res
	}
	scope, err := authz.AuditListScope(actor.Actor())
	if err != nil {
		return denied("audit.list", err)
	}
	filters := repositories.AuditFilters{
		UserID:         optional(q.UserID),
		OrganisationID: optional(scope.OrganisationID),
		Action:         optional(q.Action),
		ResourceType:   optional(q.ResourceType),
	}
	logs, total, err := s.logs.ListAuditLogs(ctx, filters, p.Limit, p.Offset())
	if err != nil {
		return internalError("list audit logs", err)
	}
	return success(http.StatusOK, MsgSuccess, pagedList("logs", logs, total, p))
}
