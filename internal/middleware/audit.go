// audit.go provides Gin middleware that records authenticated write operations
// to the audit log.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/safego"
)

const auditWriteTimeout = 5 * time.Second

// AuditWriter is satisfied by *repositories.AuditRepository.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// resourceTypes maps the first path segment after /api/v1 to the audited
// resource type.
var resourceTypes = map[string]string{
	"user":         "user",
	"organisation": "organisation",
	"project":      "project",
	"task":         "task",
	"files":        "file",
}

// resourceType derives the resource from the matched route template, e.g.
// /api/v1/project/addMembers → project.
func resourceType(route string) string {
	rest := strings.TrimPrefix(route, "/api/v1/")
	if rest == route {
		return ""
	}
	group, _, _ := strings.Cut(rest, "/")
	return resourceTypes[group]
}

// AuditMiddleware records every successful authenticated mutation. Reads,
// failures and anonymous requests are not logged. Writes happen in the
// background so a slow audit table never delays the response.
func AuditMiddleware(logs AuditWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}
		userID := c.GetString(UserIDKey)
		if userID == "" {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ip := c.ClientIP()
		entry := &models.AuditLog{
			UserID:    &userID,
			Action:    fmt.Sprintf("%s %s", c.Request.Method, route),
			IPAddress: &ip,
			CreatedAt: time.Now(),
			Metadata: map[string]interface{}{
				"status":    status,
				"requestId": c.GetString(RequestIDKey),
			},
		}
		if orgID := c.GetString(OrganisationIDKey); orgID != "" {
			entry.OrganisationID = &orgID
		}
		if rt := resourceType(route); rt != "" {
			entry.ResourceType = &rt
		}
		if method := c.GetString(AuthMethodKey); method != "" {
			entry.Metadata["authMethod"] = method
		}

		safego.Go("audit-log", func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if err := logs.CreateAuditLog(ctx, entry); err != nil {
				slog.Error("failed to write audit log", "action", entry.Action, "error", err)
			}
		})
	}
}
