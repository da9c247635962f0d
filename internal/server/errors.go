package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/decoder"
	"github.com/jimdaga/viralpilot/internal/provider"
	"github.com/jimdaga/viralpilot/internal/store"
	"github.com/jimdaga/viralpilot/internal/wordpress"
)

// ConfigPage is where clients send users to fix credentials
const ConfigPage = "/config"

// errorBody is the JSON shape of every API error
type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

// classify maps the error taxonomy onto an HTTP status.
func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	switch {
	case provider.IsAuth(err), wordpress.IsAuth(err):
		body.Redirect = ConfigPage
		return http.StatusUnauthorized, body
	case errors.Is(err, campaign.ErrTaskInProgress):
		return http.StatusConflict, body
	case errors.Is(err, campaign.ErrPrecondition):
		return http.StatusPreconditionFailed, body
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, body
	case decoder.IsMalformed(err), decoder.IsContractViolation(err):
		body.Retryable = true
		return http.StatusBadGateway, body
	case provider.IsTransient(err):
		body.Retryable = true
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg})
}
