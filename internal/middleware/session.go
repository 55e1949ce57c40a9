package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/docagent/server/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ownerContextKey = "docagent.owner"

// Session resolves the opaque owner key of the caller. The cookie wins over
// the header; a caller with neither gets a fresh key in a new cookie.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := int((time.Duration(cfg.MaxAgeDays) * 24 * time.Hour).Seconds())
	return func(c *gin.Context) {
		owner := ""
		if raw, err := c.Cookie(cfg.CookieName); err == nil {
			owner = normalizeSessionID(raw)
		}
		if owner == "" && cfg.Header != "" {
			owner = normalizeSessionID(c.GetHeader(cfg.Header))
		}
		if owner == "" {
			owner = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, owner, maxAge, "/", "", cfg.Secure, true)
		}
		c.Set(ownerContextKey, owner)
		c.Next()
	}
}

// Owner returns the session key resolved by Session, or "" outside it.
func Owner(c *gin.Context) string {
	return c.GetString(ownerContextKey)
}

// WithOwner stores owner on the context. Tests use it in place of Session.
func WithOwner(owner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ownerContextKey, owner)
		c.Next()
	}
}

func normalizeSessionID(raw string) string {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return id.String()
}
