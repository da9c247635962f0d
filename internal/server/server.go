// Package server exposes the campaign service over HTTP with gin.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/auth"
	"github.com/jimdaga/viralpilot/internal/health"
	"github.com/jimdaga/viralpilot/internal/metrics"
	"github.com/jimdaga/viralpilot/internal/service"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/streams"
)

// SessionCookie names the login session cookie
const SessionCookie = "viralpilot_session"

// Options configure the HTTP surface
type Options struct {
	SessionSecret string
	Secure        bool
	// OAuth registers the Google login routes and requires a session on the
	// API. When false every request runs as DevUserID.
	OAuth          bool
	DevUserID      uint
	DevUserEmail   string
	MediaDir       string
	MediaURLPrefix string
	ReadyTimeout   time.Duration
}

// Deps are the components the handlers call. Metrics, Follower and Ready are optional.
type Deps struct {
	Service  *service.Service
	Store    *store.Store
	Metrics  *metrics.Metrics
	Follower *streams.Follower
	Ready    map[string]health.Check
	Logger   *slog.Logger
}

type handlers struct {
	svc      *service.Service
	store    *store.Store
	follower *streams.Follower
	logger   *slog.Logger
}

// New builds the router.
func New(deps Deps, opts Options) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{svc: deps.Service, store: deps.Store, follower: deps.Follower, logger: deps.Logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	sessionStore := cookie.NewStore([]byte(opts.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(SessionCookie, sessionStore))

	r.GET("/health", gin.WrapF(health.Handler))
	r.GET("/ready", gin.WrapF(health.Readiness(deps.Ready, opts.ReadyTimeout)))
	if opts.MediaDir != "" {
		r.Static(opts.MediaURLPrefix, opts.MediaDir)
	}

	requireUser := auth.DevUser(opts.DevUserID, opts.DevUserEmail)
	if opts.OAuth {
		r.GET("/auth/google", auth.HandleLogin)
		r.GET("/auth/google/callback", auth.HandleCallback(deps.Store, deps.Logger))
		r.GET("/auth/logout", auth.HandleLogout(deps.Logger))
		requireUser = auth.RequireAuth()
	}

	api := r.Group("/api", requireUser)
	api.GET("/me", auth.HandleMe)
	api.GET("/catalog", h.catalog)

	api.POST("/campaigns", h.runCampaign)
	api.POST("/campaigns/resume", h.resumeCampaign)
	api.GET("/campaigns", h.listCampaigns)
	api.GET("/campaigns/:id", h.getCampaign)
	api.DELETE("/campaigns/:id", h.deleteCampaign)
	api.POST("/campaigns/:id/posts/:index/video", h.requestVideo)
	api.POST("/campaigns/:id/posts/:index/audio", h.requestAudio)
	api.POST("/campaigns/:id/posts/:index/publish", h.requestPublish)
	api.GET("/runs/:id/events", h.replayRun)

	api.GET("/likes", h.listLikes)
	api.POST("/likes", h.like)
	api.DELETE("/likes/:id", h.unlike)

	api.GET("/config/ai", h.getAIConfig)
	api.PUT("/config/ai", h.saveAIConfig)
	api.POST("/config/ai/validate", h.validateAIConfig)
	api.GET("/config/wordpress", h.getWordPressConfig)
	api.PUT("/config/wordpress", h.saveWordPressConfig)
	api.POST("/config/wordpress/validate", h.validateWordPressConfig)

	api.GET("/trends", h.getTrends)
	api.POST("/trends/scout", h.scoutTrends)

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (h *handlers) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalog())
}
