package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the canonical HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID string is stored.
	RequestIDKey = "request_id"
)

// validRequestID bounds inbound ids so a caller cannot inject arbitrary text
// into logs and audit metadata.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestIDMiddleware ensures every request carries an identifier.
//
// An inbound X-Request-ID from a load balancer or caller is reused when it is
// well formed; otherwise a UUID v4 is generated. The id is stored under
// RequestIDKey and echoed in the response header so clients can correlate a
// failed call with server logs and audit entries.
//
// Register it as early as possible:
//
//	router.Use(gin.Recovery())
//	router.Use(RequestIDMiddleware())
//	router.Use(MetricsMiddleware())
//	router.Use(LoggerMiddleware(cfg))
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
