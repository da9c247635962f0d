package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/markbates/goth/gothic"
)

// Users records who signed in. *store.Store implements it.
type Users interface {
	UpsertUser(ctx context.Context, email, name string) (uint, error)
	SaveIdentity(ctx context.Context, userID uint, id store.Identity) error
}

// HandleLogin initiates the Google OAuth flow
func HandleLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleCallback completes the OAuth flow, upserts the user and their
// identity, and stores the user in the session.
func HandleCallback(users Users, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Add("provider", "google")
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			logger.Warn("OAuth callback failed", "error", err)
			c.Redirect(http.StatusFound, "/?error=auth_failed")
			return
		}

		ctx := c.Request.Context()
		userID, err := users.UpsertUser(ctx, gothUser.Email, gothUser.Name)
		if err != nil {
			logger.Error("Failed to upsert user", "email", gothUser.Email, "error", err)
			c.Redirect(http.StatusFound, "/?error=auth_failed")
			return
		}
		err = users.SaveIdentity(ctx, userID, store.Identity{
			Provider:       gothUser.Provider,
			ProviderUserID: gothUser.UserID,
			AccessToken:    gothUser.AccessToken,
			RefreshToken:   gothUser.RefreshToken,
			ExpiresAt:      gothUser.ExpiresAt,
		})
		if err != nil {
			logger.Error("Failed to save identity", "user_id", userID, "error", err)
		}

		session := sessions.Default(c)
		session.Set(SessionUserID, userID)
		session.Set(SessionEmail, gothUser.Email)
		session.Set(SessionName, gothUser.Name)
		session.Set(SessionAvatar, gothUser.AvatarURL)
		if err := session.Save(); err != nil {
			logger.Error("Session save failed", "error", err)
			c.Redirect(http.StatusFound, "/?error=session_failed")
			return
		}

		logger.Info("User authenticated", "user_id", userID, "email", gothUser.Email)
		c.Redirect(http.StatusFound, "/")
	}
}

// HandleLogout clears the session and redirects home
func HandleLogout(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		session.Clear()
		if err := session.Save(); err != nil {
			logger.Warn("Session clear failed", "error", err)
		}
		c.Redirect(http.StatusFound, "/")
	}
}

// HandleMe returns the signed-in user
func HandleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":     UserID(c),
		"email":  c.GetString(SessionEmail),
		"name":   c.GetString(SessionName),
		"avatar": c.GetString(SessionAvatar),
	})
}
