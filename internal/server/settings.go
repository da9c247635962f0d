package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/auth"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/wordpress"
)

func (h *handlers) listLikes(c *gin.Context) {
	liked, err := h.store.LikedVariations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if liked == nil {
		liked = []campaign.LikedVariation{}
	}
	c.JSON(http.StatusOK, liked)
}

func (h *handlers) like(c *gin.Context) {
	var v campaign.LikedVariation
	if err := c.ShouldBindJSON(&v); err != nil {
		badRequest(c, "invalid variation: "+err.Error())
		return
	}
	if strings.TrimSpace(v.Text) == "" {
		badRequest(c, "variation text is required")
		return
	}
	saved, err := h.store.LikeVariation(c.Request.Context(), auth.UserID(c), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *handlers) unlike(c *gin.Context) {
	if err := h.store.UnlikeVariation(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type aiConfigView struct {
	Configured  bool       `json:"configured"`
	Provider    string     `json:"provider,omitempty"`
	Model       string     `json:"model,omitempty"`
	BaseURL     string     `json:"base_url,omitempty"`
	APIKey      string     `json:"api_key,omitempty"`
	Validated   bool       `json:"validated"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

func (h *handlers) getAIConfig(c *gin.Context) {
	saved, err := h.store.AIConfig(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, aiConfigView{})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, aiConfigView{
		Configured:  true,
		Provider:    saved.Credential.Provider,
		Model:       saved.Credential.Model,
		BaseURL:     saved.Credential.BaseURL,
		APIKey:      maskSecret(saved.Credential.APIKey),
		Validated:   saved.Validated,
		ValidatedAt: saved.ValidatedAt,
	})
}

func (h *handlers) saveAIConfig(c *gin.Context) {
	var cred provider.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		badRequest(c, "invalid AI config: "+err.Error())
		return
	}
	v, err := h.svc.SaveAIConfig(c.Request.Context(), auth.UserID(c), cred)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) validateAIConfig(c *gin.Context) {
	var cred provider.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		badRequest(c, "invalid AI config: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.svc.ValidateAI(c.Request.Context(), cred))
}

type wordPressConfigView struct {
	Configured  bool       `json:"configured"`
	URL         string     `json:"url,omitempty"`
	Username    string     `json:"username,omitempty"`
	Password    string     `json:"password,omitempty"`
	Validated   bool       `json:"validated"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

func (h *handlers) getWordPressConfig(c *gin.Context) {
	saved, err := h.store.WordPressConfig(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, wordPressConfigView{})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wordPressConfigView{
		Configured:  true,
		URL:         saved.Config.URL,
		Username:    saved.Config.Username,
		Password:    maskSecret(saved.Config.Password),
		Validated:   saved.Validated,
		ValidatedAt: saved.ValidatedAt,
	})
}

func (h *handlers) saveWordPressConfig(c *gin.Context) {
	var cfg wordpress.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid WordPress config: "+err.Error())
		return
	}
	v, err := h.svc.SaveWordPressConfig(c.Request.Context(), auth.UserID(c), cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) validateWordPressConfig(c *gin.Context) {
	var cfg wordpress.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid WordPress config: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.svc.ValidateWordPress(c.Request.Context(), cfg))
}

func (h *handlers) getTrends(c *gin.Context) {
	report, err := h.svc.Trends(c.Request.Context(), c.Query("niche"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) scoutTrends(c *gin.Context) {
	var body struct {
		Niche string `json:"niche"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid scout request: "+err.Error())
			return
		}
	}
	report, err := h.svc.ScoutTrends(c.Request.Context(), auth.UserID(c), body.Niche)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// maskSecret keeps the last four characters of a secret for display.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}
