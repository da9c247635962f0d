package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session and context keys
const (
	SessionName   = "user_name"
	SessionUserID = "user_id"
	SessionEmail  = "user_email"
	SessionAvatar = "user_avatar"
)

// SessionMaxAge is the login lifetime in seconds
const SessionMaxAge = 86400 * 30

// RequireAuth is a middleware that ensures the user is authenticated.
// API requests get a JSON 401; page requests are redirected to login.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)

		if !ok || userID == 0 {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			c.Redirect(http.StatusFound, "/auth/google")
			c.Abort()
			return
		}

		c.Set(SessionUserID, userID)
		c.Set(SessionEmail, session.Get(SessionEmail))
		c.Set(SessionName, session.Get(SessionName))
		c.Set(SessionAvatar, session.Get(SessionAvatar))
		c.Next()
	}
}

// DevUser runs every request as the given user. It replaces RequireAuth
// when no OAuth provider is configured.
func DevUser(userID uint, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(SessionUserID, userID)
		c.Set(SessionEmail, email)
		c.Set(SessionName, "Developer")
		c.Next()
	}
}

// UserID returns the authenticated user set by RequireAuth or DevUser.
func UserID(c *gin.Context) uint {
	id, _ := c.Get(SessionUserID)
	userID, _ := id.(uint)
	return userID
}
