package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/media"
)

// Client talks to the WordPress REST API
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. A nil httpClient gets a 30s timeout default.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient, now: time.Now}
}

// Validate checks the credentials with GET /users/me. It never returns an
// error; every failure is described in the Validation.
func (c *Client) Validate(ctx context.Context, cfg Config) Validation {
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return Validation{Error: "All fields are required."}
	}
	origin, err := siteOrigin(cfg.URL)
	if err != nil {
		return Validation{Error: fmt.Sprintf("Network error: %v. Ensure the URL is correct and accessible.", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/wp-json/wp/v2/users/me", nil)
	if err != nil {
		return Validation{Error: fmt.Sprintf("Network error: %v. Ensure the URL is correct and accessible.", err)}
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Validation{Error: fmt.Sprintf("Network error: %v. Ensure the URL is correct and accessible.", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Validation{Valid: true}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return Validation{Error: "Authentication failed. Check username and Application Password."}
	}
	message := remoteMessage(resp.Body)
	if message == "" {
		message = "Could not connect. Check URL and CORS settings."
	}
	return Validation{Error: fmt.Sprintf("Validation failed (%d): %s", resp.StatusCode, message)}
}

// Publish uploads the post's image and creates a draft using the chosen
// variation, returning the draft's link. Preconditions are checked before
// any request is made.
func (c *Client) Publish(ctx context.Context, post campaign.Post, variationIndex int, cfg Config) (string, error) {
	if post.Image.Status != campaign.TaskCompleted || post.Image.Payload == "" {
		return "", fmt.Errorf("%w: post has no image data to publish", campaign.ErrPrecondition)
	}
	if variationIndex < 0 || variationIndex >= len(post.Variations) {
		return "", fmt.Errorf("%w: variation index %d out of range (post has %d)", campaign.ErrPrecondition, variationIndex, len(post.Variations))
	}
	if cfg.URL == "" || cfg.Username == "" || cfg.Password == "" {
		return "", fmt.Errorf("%w: WordPress is not configured", campaign.ErrPrecondition)
	}
	// Recover the image bytes from the stored data URL
	mime, data, err := media.DecodeDataURL(post.Image.Payload)
	if err != nil {
		return "", fmt.Errorf("%w: invalid image data format: %v", campaign.ErrPrecondition, err)
	}
	origin, err := siteOrigin(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid site URL: %v", campaign.ErrPrecondition, err)
	}

	// Upload the featured image first
	mediaID, err := c.uploadImage(ctx, origin, cfg, mime, data)
	if err != nil {
		return "", err
	}

	// Create the draft referencing the uploaded media
	variation := post.Variations[variationIndex]
	body := createPostRequest{
		Title:         variation.Title,
		Content:       RenderContent(variation, post.HashtagStrategy),
		Status:        "draft",
		FeaturedMedia: mediaID,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/wp-json/wp/v2/posts", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	var created createPostResponse
	if err := c.do(req, StepCreate, &created); err != nil {
		return "", err
	}
	return created.Link, nil
}

func (c *Client) uploadImage(ctx context.Context, origin string, cfg Config, mime string, data []byte) (int64, error) {
	// Build multipart body with a single file part
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := fmt.Sprintf("ai-generated-image-%d.%s", c.now().UnixMilli(), media.Extension(mime))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mime)
	part, err := writer.CreatePart(header)
	if err != nil {
		return 0, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/wp-json/wp/v2/media", &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var uploaded mediaResponse
	if err := c.do(req, StepUpload, &uploaded); err != nil {
		return 0, err
	}
	return uploaded.ID, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, step string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", step, err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := remoteMessage(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{Status: resp.StatusCode, Message: message}
		}
		return &RemoteError{Step: step, Status: resp.StatusCode, Message: message}
	}

	// Parse response
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", step, err)
	}
	return nil
}

// RenderContent builds the draft body: the variation text, the call to
// action in emphasis and every hashtag on its own paragraph.
func RenderContent(v campaign.Variation, tags campaign.HashtagStrategy) string {
	var b strings.Builder
	b.WriteString(v.Text)
	b.WriteString("<br><br><p><em>")
	b.WriteString(v.CallToAction)
	b.WriteString("</em></p><br><p>")
	b.WriteString(strings.Join(tags.All(), " "))
	b.WriteString("</p>")
	return b.String()
}

// siteOrigin reduces any site URL to scheme://host[:port].
func siteOrigin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL must include scheme and host")
	}
	return u.Scheme + "://" + u.Host, nil
}

// remoteMessage extracts the WordPress error message from a response body.
func remoteMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(raw))
}
