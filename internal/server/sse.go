package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SSE frame types
const (
	frameSnapshot = "snapshot"
	frameEvent    = "event"
	frameError    = "error"
)

type sseStreamer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// startSSE writes the event-stream headers. Nothing can change the status
// code afterwards, so callers must reject bad requests first.
func startSSE(c *gin.Context) (*sseStreamer, error) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &sseStreamer{writer: c.Writer, flusher: flusher}, nil
}

func (s *sseStreamer) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseStreamer) sendError(err error, extra map[string]any) error {
	_, body := classify(err)
	frame := map[string]any{"type": frameError, "error": body.Error}
	if body.Retryable {
		frame["retryable"] = true
	}
	if body.Redirect != "" {
		frame["redirect"] = body.Redirect
	}
	for k, v := range extra {
		frame[k] = v
	}
	return s.send(frame)
}

func (s *sseStreamer) sendDone() error {
	if _, err := fmt.Fprintf(s.writer, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
