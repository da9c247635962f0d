package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/aggregator"
	"github.com/jimdaga/viralpilot/internal/auth"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/pipeline"
	"github.com/jimdaga/viralpilot/internal/service"
	"github.com/jimdaga/viralpilot/internal/streams"
)

type snapshotFrame struct {
	Type     string            `json:"type"`
	Step     campaign.Step     `json:"step"`
	Campaign campaign.Campaign `json:"campaign"`
}

// runCampaign streams the run as server-sent snapshots. Each frame carries
// the whole campaign so far, with media referenced by URL only; the stream
// ends with [DONE].
func (h *handlers) runCampaign(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid campaign request: "+err.Error())
		return
	}
	userID := auth.UserID(c)
	if err := h.svc.Preflight(c.Request.Context(), userID, &req); err != nil {
		h.fail(c, err)
		return
	}

	h.stream(c, func(observe func(aggregator.Snapshot)) error {
		_, err := h.svc.RunCampaign(c.Request.Context(), userID, req, observe)
		return err
	})
}

// resumeCampaign retries content generation from the checkpoint sent in a
// previous run's error frame.
func (h *handlers) resumeCampaign(c *gin.Context) {
	var cp pipeline.Checkpoint
	if err := c.ShouldBindJSON(&cp); err != nil {
		badRequest(c, "invalid checkpoint: "+err.Error())
		return
	}
	userID := auth.UserID(c)
	if err := h.svc.Preflight(c.Request.Context(), userID, &cp.Request); err != nil {
		h.fail(c, err)
		return
	}

	h.stream(c, func(observe func(aggregator.Snapshot)) error {
		_, err := h.svc.ResumeCampaign(c.Request.Context(), userID, cp, observe)
		return err
	})
}

func (h *handlers) stream(c *gin.Context, run func(observe func(aggregator.Snapshot)) error) {
	sse, err := startSSE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "streaming unavailable"})
		return
	}

	err = run(func(s aggregator.Snapshot) {
		if serr := sse.send(snapshotFrame{Type: frameSnapshot, Step: s.Step, Campaign: s.Campaign.WithoutPayloads()}); serr != nil {
			h.logger.Debug("Client stopped reading campaign stream", "error", serr)
		}
	})
	if err != nil && c.Request.Context().Err() == nil {
		extra := map[string]any{}
		var pe *pipeline.PhaseError
		if errors.As(err, &pe) {
			extra["step"] = pe.Step
			if pe.Checkpoint != nil {
				extra["checkpoint"] = pe.Checkpoint
			}
		}
		_ = sse.sendError(err, extra)
	}
	_ = sse.sendDone()
}

func (h *handlers) listCampaigns(c *gin.Context) {
	list, err := h.store.ListCampaigns(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []campaign.Campaign{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) getCampaign(c *gin.Context) {
	cmp, err := h.store.GetCampaign(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *handlers) deleteCampaign(c *gin.Context) {
	if err := h.store.DeleteCampaign(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) requestVideo(c *gin.Context) {
	h.requestMedia(c, h.svc.RequestVideo)
}

func (h *handlers) requestAudio(c *gin.Context) {
	h.requestMedia(c, h.svc.RequestAudio)
}

func (h *handlers) requestMedia(c *gin.Context, request func(ctx context.Context, job service.MediaJob) (campaign.Post, error)) {
	job, ok := mediaJob(c)
	if !ok {
		return
	}
	post, err := request(c.Request.Context(), job)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, post)
}

func (h *handlers) requestPublish(c *gin.Context) {
	job, ok := mediaJob(c)
	if !ok {
		return
	}
	var body struct {
		VariationIndex int `json:"variation_index"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid publish request: "+err.Error())
			return
		}
	}

	post, err := h.svc.RequestPublish(c.Request.Context(), service.PublishJob{MediaJob: job, VariationIndex: body.VariationIndex})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, post)
}

func mediaJob(c *gin.Context) (service.MediaJob, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		badRequest(c, "post index must be a non-negative integer")
		return service.MediaJob{}, false
	}
	return service.MediaJob{UserID: auth.UserID(c), CampaignID: c.Param("id"), PostIndex: index}, true
}

type eventFrame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event json.RawMessage `json:"event"`
}

// replayRun streams a run's mirrored events from the Redis stream, starting
// after the "from" entry id, until the run ends.
func (h *handlers) replayRun(c *gin.Context) {
	if h.follower == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "run replay requires REDIS_URL"})
		return
	}

	sse, err := startSSE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "streaming unavailable"})
		return
	}

	runID := c.Param("id")
	err = h.follower.Follow(c.Request.Context(), runID, c.Query("from"), func(m streams.Message) error {
		if m.End {
			if m.Error != "" {
				return sse.send(map[string]any{"type": frameError, "id": m.ID, "error": m.Error})
			}
			return nil
		}
		raw, err := campaign.MarshalEvent(m.Event)
		if err != nil {
			return err
		}
		return sse.send(eventFrame{Type: frameEvent, ID: m.ID, Event: raw})
	})
	if err != nil && c.Request.Context().Err() == nil {
		h.logger.Warn("Run replay stopped", "campaign_id", runID, "error", err)
		_ = sse.sendError(err, nil)
	}
	_ = sse.sendDone()
}
