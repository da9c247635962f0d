package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// GeminiGateway implements Gateway on the Google GenAI SDK
type GeminiGateway struct {
	client *genai.Client
	cfg    Config
}

// NewGeminiGateway creates a Gemini-backed gateway. The API key is required.
func NewGeminiGateway(ctx context.Context, cfg Config) (*GeminiGateway, error) {
	client, err := newGenAIClient(ctx, cfg.APIKey, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	return &GeminiGateway{client: client, cfg: cfg}, nil
}

func newGenAIClient(ctx context.Context, apiKey string, httpClient *http.Client) (*genai.Client, error) {
	if apiKey == "" {
		return nil, &Error{Kind: KindAuth, Message: "Gemini API key is required"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// CompleteStructured requests a JSON response.
func (g *GeminiGateway) CompleteStructured(ctx context.Context, req StructuredRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, pick(req.Model, g.cfg.Model), genai.Text(req.Prompt), config)
	if err != nil {
		return "", classifyGenAI(err)
	}
	return resp.Text(), nil
}

// CompleteGrounded runs the prompt with the Google Search tool enabled.
// JSON mode cannot be combined with tools, so the decoder handles any wrapping.
func (g *GeminiGateway) CompleteGrounded(ctx context.Context, req GroundedRequest) (GroundedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	model := pick(req.Model, g.cfg.ResearchModel, g.cfg.Model)

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return GroundedResponse{}, classifyGenAI(err)
	}

	out := GroundedResponse{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		seen := make(map[string]bool)
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			out.Citations = append(out.Citations, campaign.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out, nil
}

// GenerateImage produces one image with Imagen.
func (g *GeminiGateway) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	mime := pick(req.MIMEType, DefaultImageMIME)
	resp, err := g.client.Models.GenerateImages(ctx, g.cfg.ImageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: mime,
		AspectRatio:    pick(req.AspectRatio, DefaultImageAspect),
	})
	if err != nil {
		return Image{}, classifyGenAI(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return Image{}, &Error{Kind: KindFatal, Message: "no image returned (prompt may have been filtered)"}
	}
	return Image{Data: resp.GeneratedImages[0].Image.ImageBytes, MIMEType: mime}, nil
}

// StartVideo submits a Veo generation and returns immediately.
func (g *GeminiGateway) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	op, err := g.client.Models.GenerateVideos(ctx, g.cfg.VideoModel, req.Prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     pick(req.Resolution, DefaultVideoRes),
		AspectRatio:    pick(req.AspectRatio, DefaultVideoAspect),
	})
	if err != nil {
		return VideoOperation{}, classifyGenAI(err)
	}
	return g.videoState(ctx, op)
}

// PollVideo refreshes a running operation, downloading the result once done.
func (g *GeminiGateway) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	latest, err := g.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.ID}, nil)
	if err != nil {
		return op, classifyGenAI(err)
	}
	return g.videoState(ctx, latest)
}

func (g *GeminiGateway) videoState(ctx context.Context, op *genai.GenerateVideosOperation) (VideoOperation, error) {
	out := VideoOperation{ID: op.Name, State: VideoPending}
	if !op.Done {
		return out, nil
	}
	if op.Error != nil {
		out.State = VideoFailed
		out.Error = fmt.Sprint(op.Error["message"])
		return out, nil
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		out.State = VideoFailed
		out.Error = "operation finished without a video"
		return out, nil
	}

	video := op.Response.GeneratedVideos[0].Video
	out.URI = video.URI
	out.MIMEType = pick(video.MIMEType, "video/mp4")
	out.Data = video.VideoBytes
	if len(out.Data) == 0 && out.URI != "" {
		data, err := g.download(ctx, out.URI)
		if err != nil {
			return out, err
		}
		out.Data = data
	}
	out.State = VideoReady
	return out, nil
}

// download fetches a generated file; the file URI needs the API key.
func (g *GeminiGateway) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &Error{Kind: KindFatal, Message: "invalid video URI", Err: err}
	}
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.cfg.httpClient().Do(req)
	if err != nil {
		return nil, wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransport(err)
	}
	return data, nil
}

// SynthesizeSpeech reads text aloud with a prebuilt voice and returns WAV audio.
func (g *GeminiGateway) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Audio, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.callTimeout())
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: pick(req.Voice, DefaultVoice)},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.SpeechModel, genai.Text(req.Text), config)
	if err != nil {
		return Audio{}, classifyGenAI(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Audio{}, &Error{Kind: KindFatal, Message: "no audio returned"}
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if strings.HasPrefix(part.InlineData.MIMEType, "audio/L16") || strings.Contains(part.InlineData.MIMEType, "pcm") {
			return Audio{Data: pcmToWAV(part.InlineData.Data, sampleRate(part.InlineData.MIMEType)), MIMEType: "audio/wav"}, nil
		}
		return Audio{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
	}
	return Audio{}, &Error{Kind: KindFatal, Message: "no audio returned"}
}

// ValidateCredential sends a one-word prompt with the candidate key.
func (g *GeminiGateway) ValidateCredential(ctx context.Context, cred Credential) Validation {
	return validateGemini(ctx, cred, g.cfg)
}

func validateGemini(ctx context.Context, cred Credential, cfg Config) Validation {
	ctx, cancel := context.WithTimeout(ctx, cfg.callTimeout())
	defer cancel()

	client, err := newGenAIClient(ctx, cred.APIKey, cfg.HTTPClient)
	if err != nil {
		return Validation{Error: err.Error()}
	}
	if _, err := client.Models.GenerateContent(ctx, pick(cred.Model, cfg.Model), genai.Text(DefaultValidatePrompt), nil); err != nil {
		return Validation{Error: classifyGenAI(err).Message}
	}
	return Validation{Valid: true}
}

// classifyGenAI maps SDK errors onto the provider taxonomy.
func classifyGenAI(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return wrapTransport(err)
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
