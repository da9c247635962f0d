package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// OpenAIGateway implements Gateway for OpenAI-compatible chat APIs
// (OpenAI, OpenRouter, Groq, Perplexity). Video and speech are not offered.
type OpenAIGateway struct {
	name       string
	baseURL    string
	cfg        Config
	httpClient *http.Client
}

// NewOpenAIGateway creates a gateway for an OpenAI-compatible endpoint.
func NewOpenAIGateway(cfg Config) (*OpenAIGateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for provider %q", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindAuth, Message: "API key is required"}
	}
	return &OpenAIGateway{
		name:       normalizedProvider(cfg.Provider),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		httpClient: cfg.httpClient(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteStructured requests a JSON object response.
func (o *OpenAIGateway) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	body := chatRequest{
		Model:    pick(req.Model, o.cfg.Model),
		Messages: messages(req.System, req.Prompt),
	}
	// Perplexity rejects json_object; prompts already demand JSON.
	if o.name != "perplexity" {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	resp, err := o.chat(ctx, body)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteGrounded runs the research prompt. Only search-backed models
// (Perplexity) return citations; others answer from model knowledge.
func (o *OpenAIGateway) CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error) {
	body := chatRequest{
		Model:    pick(req.Model, o.cfg.ResearchModel, o.cfg.Model),
		Messages: messages("", req.Prompt),
	}
	resp, err := o.chat(ctx, body)
	if err != nil {
		return GroundedResponse{}, err
	}

	out := GroundedResponse{Text: resp.Choices[0].Message.Content}
	seen := make(map[string]bool)
	for _, uri := range resp.Citations {
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		out.Citations = append(out.Citations, campaign.Citation{URI: uri, Title: uri})
	}
	return out, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage calls /images/generations and decodes the base64 payload.
func (o *OpenAIGateway) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	if o.cfg.ImageModel == "" {
		return Image{}, unsupported(o.name, "image generation")
	}
	body := imageRequest{Model: o.cfg.ImageModel, Prompt: req.Prompt, N: 1, Size: "1024x1024"}
	if o.cfg.ImageModel != "gpt-image-1" {
		body.ResponseFormat = "b64_json"
	}

	var resp imageResponse
	if err := o.post(ctx, "/images/generations", body, &resp); err != nil {
		return Image{}, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return Image{}, &Error{Kind: KindFatal, Message: "no image returned"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return Image{}, &Error{Kind: KindFatal, Message: "invalid image payload", Err: err}
	}
	return Image{Data: data, MIMEType: "image/png"}, nil
}

// StartVideo is not offered by OpenAI-compatible endpoints.
func (o *OpenAIGateway) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	return VideoOperation{}, unsupported(o.name, "video generation")
}

// PollVideo is not offered by OpenAI-compatible endpoints.
func (o *OpenAIGateway) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	return op, unsupported(o.name, "video generation")
}

// SynthesizeSpeech is not offered by OpenAI-compatible endpoints.
func (o *OpenAIGateway) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error) {
	return Audio{}, unsupported(o.name, "speech synthesis")
}

// ValidateCredential sends a one-word prompt with the candidate key.
func (o *OpenAIGateway) ValidateCredential(ctx context.Context, cred Credential) Validation {
	probe := *o
	probe.cfg.APIKey = cred.APIKey
	if cred.BaseURL != "" {
		probe.baseURL = strings.TrimRight(cred.BaseURL, "/")
	}
	if cred.APIKey == "" {
		return Validation{Error: "API key is required"}
	}

	_, err := probe.chat(ctx, chatRequest{
		Model:     pick(cred.Model, o.cfg.Model),
		Messages:  messages("", DefaultValidatePrompt),
		MaxTokens: 5,
	})
	if err != nil {
		if pe, ok := err.(*Error); ok {
			return Validation{Error: pe.Message}
		}
		return Validation{Error: err.Error()}
	}
	return Validation{Valid: true}
}

func (o *OpenAIGateway) chat(ctx context.Context, body chatRequest) (*chatResponse, error) {
	var resp chatResponse
	if err := o.post(ctx, "/chat/completions", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindFatal, Message: "response contained no choices"}
	}
	return &resp, nil
}

// post sends a JSON request under the per-call timeout and decodes the reply.
func (o *OpenAIGateway) post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.callTimeout())
	defer cancel()

	// Marshal request body
	jsonData, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindFatal, Message: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return &Error{Kind: KindFatal, Message: "failed to create request", Err: err}
	}
	// Set headers
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	// Execute request
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Prefer the API's own error message
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiErrorBody
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return statusError(resp.StatusCode, message, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapTransport(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func messages(system, prompt string) []chatMessage {
	var msgs []chatMessage
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	return append(msgs, chatMessage{Role: "user", Content: prompt})
}
