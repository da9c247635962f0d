// Package provider is the capability boundary to generative AI services.
//
// Every pipeline and enrichment call goes through the Gateway interface so the
// orchestration code never knows which vendor (or the offline stub) is behind it.
package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// Gateway is the set of capabilities the campaign pipeline and enrichment
// stages require from an AI provider.
type Gateway interface {
	CompleteStructured(ctx context.Context, req StructuredRequest) (string, error)
	CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error)
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
	StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error)
	PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error)
	SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error)
	ValidateCredential(ctx context.Context, cred Credential) Validation
}

// StructuredRequest asks for a JSON document. Model overrides the gateway default.
type StructuredRequest struct {
	Model  string
	System string
	Prompt string
}

// GroundedRequest asks for a web-grounded completion
type GroundedRequest struct {
	Model  string
	Prompt string
}

// GroundedResponse is the completion text plus the sources it was grounded on
type GroundedResponse struct {
	Text      string
	Citations []campaign.Citation
}

// ImageRequest asks for a single image
type ImageRequest struct {
	Prompt      string
	MIMEType    string
	AspectRatio string
}

// Image is raw image bytes
type Image struct {
	Data     []byte
	MIMEType string
}

// VideoRequest asks for a single short video
type VideoRequest struct {
	Prompt      string
	Resolution  string
	AspectRatio string
}

// VideoState is the lifecycle of a long-running video operation
type VideoState string

const (
	VideoSubmitted VideoState = "submitted"
	VideoPending   VideoState = "pending"
	VideoReady     VideoState = "ready"
	VideoFailed    VideoState = "failed"
)

// VideoOperation is a handle to a long-running video generation.
// Data is only populated once State is VideoReady.
type VideoOperation struct {
	ID       string
	State    VideoState
	URI      string
	Data     []byte
	MIMEType string
	Error    string
}

// SpeechRequest asks for text-to-speech with a prebuilt voice
type SpeechRequest struct {
	Text  string
	Voice string
}

// Audio is a playable audio clip
type Audio struct {
	Data     []byte
	MIMEType string
}

// Credential is a provider key to check
type Credential struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Validation is the outcome of a credential check. It is a value, never an error.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Defaults used by every gateway implementation
const (
	DefaultCallTimeout    = 90 * time.Second
	DefaultImageMIME      = "image/jpeg"
	DefaultImageAspect    = "1:1"
	DefaultVideoRes       = "720p"
	DefaultVideoAspect    = "9:16"
	DefaultVoice          = "Kore"
	DefaultValidatePrompt = "Hi"
)

// Config selects and configures a Gateway. Nothing in this package reads
// credentials from the environment; callers pass them explicitly.
type Config struct {
	Provider      string
	APIKey        string
	Model         string
	ResearchModel string
	ImageModel    string
	VideoModel    string
	SpeechModel   string
	BaseURL       string
	CallTimeout   time.Duration
	StubDelay     time.Duration
	HTTPClient    *http.Client
}

func (c Config) callTimeout() time.Duration {
	if c.CallTimeout <= 0 {
		return DefaultCallTimeout
	}
	return c.CallTimeout
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{}
}

// normalizedProvider lower-cases the provider id and maps aliases.
func normalizedProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "google" {
		return "gemini"
	}
	return name
}
