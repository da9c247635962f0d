package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/media"
)

func publishablePost() campaign.Post {
	return campaign.Post{
		Platform: campaign.PlatformLinkedIn,
		Variations: []campaign.Variation{
			{Framework: campaign.FrameworkAIDA, Title: "Launch", Text: "We shipped it.", CallToAction: "Try it today"},
		},
		HashtagStrategy: campaign.HashtagStrategy{Core: []string{"#launch"}, Niche: []string{"#golang"}},
		Image: campaign.MediaTask{
			Status:  campaign.TaskCompleted,
			Payload: media.EncodeDataURL("image/png", []byte{0x89, 'P', 'N', 'G'}),
		},
	}
}

func TestPublishPreconditionsMakeNoCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	cfg := Config{URL: server.URL, Username: "admin", Password: "app pass"}
	client := NewClient(server.Client())

	noImage := publishablePost()
	noImage.Image = campaign.MediaTask{}
	_, err := client.Publish(context.Background(), noImage, 0, cfg)
	require.ErrorIs(t, err, campaign.ErrPrecondition)

	_, err = client.Publish(context.Background(), publishablePost(), 3, cfg)
	require.ErrorIs(t, err, campaign.ErrPrecondition)

	_, err = client.Publish(context.Background(), publishablePost(), 0, Config{URL: server.URL})
	require.ErrorIs(t, err, campaign.ErrPrecondition)

	assert.Zero(t, calls.Load())
}

func TestPublishUploadsThenCreatesDraft(t *testing.T) {
	var created createPostRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "app pass", pass)

		switch r.URL.Path {
		case "/wp-json/wp/v2/media":
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "ai-generated-image-1700000000000.png", header.Filename)
			data, _ := io.ReadAll(file)
			assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 42}`))
		case "/wp-json/wp/v2/posts":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 7, "link": "https://blog.example.com/?p=7"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.Client())
	client.now = func() time.Time { return time.UnixMilli(1700000000000) }

	link, err := client.Publish(context.Background(), publishablePost(), 0,
		Config{URL: server.URL + "/some/page", Username: "admin", Password: "app pass"})
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com/?p=7", link)
	assert.Equal(t, "Launch", created.Title)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, int64(42), created.FeaturedMedia)
	assert.Equal(t, "We shipped it.<br><br><p><em>Try it today</em></p><br><p>#launch #golang</p>", created.Content)
}

func TestPublishUploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"code":"rest_upload_too_big","message":"File is too large"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.Client()).Publish(context.Background(), publishablePost(), 0,
		Config{URL: server.URL, Username: "admin", Password: "x"})
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, StepUpload, remote.Step)
	assert.Equal(t, http.StatusRequestEntityTooLarge, remote.Status)
	assert.Equal(t, "Image upload failed (413): File is too large", remote.Error())
}

func TestPublishUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(server.Client()).Publish(context.Background(), publishablePost(), 0,
		Config{URL: server.URL, Username: "admin", Password: "x"})
	assert.True(t, IsAuth(err))
}

func TestValidate(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/users/me", r.URL.Path)
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusForbidden {
			_, _ = w.Write([]byte(`{"message":"Sorry, you are not allowed"}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.Client())
	cfg := Config{URL: server.URL, Username: "admin", Password: "pw"}

	assert.Equal(t, Validation{Valid: true}, client.Validate(context.Background(), cfg))

	status.Store(http.StatusUnauthorized)
	assert.Equal(t, "Authentication failed. Check username and Application Password.",
		client.Validate(context.Background(), cfg).Error)

	status.Store(http.StatusForbidden)
	assert.Equal(t, "Validation failed (403): Sorry, you are not allowed",
		client.Validate(context.Background(), cfg).Error)

	status.Store(http.StatusInternalServerError)
	assert.Equal(t, "Validation failed (500): Could not connect. Check URL and CORS settings.",
		client.Validate(context.Background(), cfg).Error)

	assert.Equal(t, "All fields are required.",
		client.Validate(context.Background(), Config{URL: server.URL}).Error)
}
