package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey     = "sessionId"
	sessionHeader    = "X-Session-Id"
	sessionCookie    = "session_id"
	sessionCookieAge = 24 * 60 * 60
	maxSessionIDLen  = 128
)

// Session resolves the page-view session from the X-Session-Id header or the
// session cookie and issues a new one when neither is present.
func Session(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		id := normalizeSessionID(c.GetHeader(sessionHeader))
		if id == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				id = normalizeSessionID(cookie)
			}
		}
		if id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, sessionCookieAge, "/", "", secureCookie, true)
		}

		c.Set(sessionIDKey, id)
		c.Writer.Header().Set(sessionHeader, id)
		c.Next()
	}
}

// SessionIDFromContext fetches the session ID set by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

func normalizeSessionID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxSessionIDLen {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ':':
		default:
			return ""
		}
	}
	return id
}
