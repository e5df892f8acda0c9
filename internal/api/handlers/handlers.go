// Package handlers binds HTTP requests to the service layer. Handlers parse
// the path, query and body, call one service operation and write its Result as
// the response envelope. Authorization decisions live in the services.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/services"
)

// actorID returns the authenticated user id, or "" on public routes.
func actorID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// pagination parses page/limit and writes a 400 on bad input.
func pagination(c *gin.Context, out response.Writer) (services.Pagination, bool) {
	p, err := services.ParsePagination(c.Query("page"), c.Query("limit"))
	if err != nil {
		out.Error(c, http.StatusBadRequest, err.Error(), nil)
		return services.Pagination{}, false
	}
	return p, true
}

// CookieConfig controls how session cookies are written.
type CookieConfig struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewCookieConfig marks cookies Secure when the public URL is served over https.
func NewCookieConfig(publicURL, domain string, accessTTL, refreshTTL time.Duration) CookieConfig {
	secure := false
	if u, err := url.Parse(publicURL); err == nil {
		secure = strings.EqualFold(u.Scheme, "https")
	}
	return CookieConfig{Domain: domain, Secure: secure, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (cc CookieConfig) set(c *gin.Context, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   int(ttl.Seconds()),
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (cc CookieConfig) clear(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   -1,
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
