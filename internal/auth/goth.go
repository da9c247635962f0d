package auth

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jimdaga/viralpilot/internal/config"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// InitProviders configures gothic's session store and registers the Google
// provider. Without GOOGLE_CLIENT_ID no provider is registered and the
// server runs every request as the development user.
func InitProviders(cfg *config.Config, logger *slog.Logger) {
	// Gothic keeps its own gorilla/sessions store next to the gin-contrib one.
	// Its default has Secure=true which breaks localhost over plain HTTP.
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	if !cfg.AuthEnabled() {
		logger.Warn("GOOGLE_CLIENT_ID not set, requests run as the development user")
		return
	}

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL,
			"email",
			"profile",
		),
	)
	logger.Info("Goth providers initialized", "providers", "google")
}
