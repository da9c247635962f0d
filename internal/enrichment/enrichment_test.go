package enrichment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/jimdaga/viralpilot/internal/media"
	"github.com/jimdaga/viralpilot/internal/provider"
)

// imageGateway fails prompts listed in fail and tracks peak concurrency.
type imageGateway struct {
	*provider.StubGateway
	fail     map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *imageGateway) GenerateImage(ctx context.Context, req provider.ImageRequest) (provider.Image, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if g.fail[req.Prompt] {
		return provider.Image{}, &provider.Error{Kind: provider.KindFatal, Status: 400, Message: "prompt rejected"}
	}
	return provider.Image{Data: []byte("img:" + req.Prompt), MIMEType: "image/jpeg"}, nil
}

// memoryStore keeps artifacts in a map.
type memoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memoryStore) Put(ctx context.Context, kind, mime string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	url := "/media/" + kind + "-" + string(rune('a'+len(s.files))) + "." + media.Extension(mime)
	s.files[url] = data
	return url, nil
}

func campaignWithPosts(prompts ...string) campaign.Campaign {
	c := campaign.Campaign{ID: "c1"}
	for _, p := range prompts {
		c.Posts = append(c.Posts, campaign.Post{
			Platform:    campaign.PlatformLinkedIn,
			ImagePrompt: p,
			Variations: []campaign.Variation{
				{Framework: campaign.FrameworkAIDA, Text: "text for " + p},
				{Framework: campaign.FrameworkVideo, Text: "video script for " + p},
			},
			Image: campaign.MediaTask{Status: campaign.TaskInProgress},
		})
	}
	return c
}

func TestEnrichImagesIndependentFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &imageGateway{StubGateway: provider.NewStubGateway(0), fail: map[string]bool{"p2": true}}
	e := New(gw, &memoryStore{}, Options{Concurrency: 2}, nil)
	input := campaignWithPosts("p1", "p2", "p3")

	var mu sync.Mutex
	observed := map[int]campaign.TaskStatus{}
	out := e.EnrichImages(context.Background(), input, func(i int, p campaign.Post) {
		mu.Lock()
		defer mu.Unlock()
		observed[i] = p.Image.Status
	})

	require.Len(t, out.Posts, 3)
	assert.Equal(t, campaign.TaskCompleted, out.Posts[0].Image.Status)
	assert.Equal(t, campaign.TaskError, out.Posts[1].Image.Status)
	assert.Equal(t, campaign.TaskCompleted, out.Posts[2].Image.Status)
	assert.Contains(t, out.Posts[1].Image.Error, "prompt rejected")

	for i := range out.Posts {
		assert.Equal(t, input.Posts[i].Variations, out.Posts[i].Variations)
	}
	assert.Len(t, observed, 3)

	mime, data, err := media.DecodeDataURL(out.Posts[0].Image.Payload)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("img:p1"), data)
	assert.NotEmpty(t, out.Posts[0].Image.URL)

	assert.Equal(t, campaign.TaskInProgress, input.Posts[0].Image.Status, "input campaign must not be mutated")
}

func TestEnrichImagesRespectsConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &imageGateway{StubGateway: provider.NewStubGateway(0)}
	e := New(gw, &memoryStore{}, Options{Concurrency: 2}, nil)
	out := e.EnrichImages(context.Background(), campaignWithPosts("a", "b", "c", "d", "e", "f"), nil)

	for _, p := range out.Posts {
		assert.Equal(t, campaign.TaskCompleted, p.Image.Status)
	}
	assert.LessOrEqual(t, gw.peak.Load(), int32(2))
}

func TestEnrichImagesSkipsSettledPosts(t *testing.T) {
	gw := &imageGateway{StubGateway: provider.NewStubGateway(0)}
	c := campaignWithPosts("a", "b")
	c.Posts[0].Image = campaign.MediaTask{Status: campaign.TaskCompleted, URL: "/media/old.jpg"}

	out := New(gw, &memoryStore{}, Options{}, nil).EnrichImages(context.Background(), c, nil)
	assert.Equal(t, "/media/old.jpg", out.Posts[0].Image.URL)
	assert.Equal(t, campaign.TaskCompleted, out.Posts[1].Image.Status)
}

func TestEnrichImagesMissingPrompt(t *testing.T) {
	gw := &imageGateway{StubGateway: provider.NewStubGateway(0)}
	out := New(gw, &memoryStore{}, Options{}, nil).EnrichImages(context.Background(), campaignWithPosts(""), nil)
	assert.Equal(t, campaign.TaskError, out.Posts[0].Image.Status)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) ObserveEnrichment(kind string, status campaign.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[kind+":"+string(status)]++
}

func TestGenerateVideoAndAudio(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &countingRecorder{}
	store := &memoryStore{}
	e := New(provider.NewStubGateway(0), store, Options{VideoPollInterval: time.Millisecond, VideoMaxPolls: 3, Recorder: rec}, nil)
	post := campaignWithPosts("p").Posts[0]

	post, err := e.GenerateVideo(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, campaign.TaskCompleted, post.Video.Status)
	assert.Contains(t, post.Video.URL, ".mp4")

	post, err = e.SynthesizeAudio(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, campaign.TaskCompleted, post.Audio.Status)
	assert.Contains(t, post.Audio.URL, ".wav")

	_, err = e.GenerateVideo(context.Background(), post)
	assert.ErrorIs(t, err, campaign.ErrPrecondition)

	assert.Equal(t, 1, rec.counts["video:completed"])
	assert.Equal(t, 1, rec.counts["audio:completed"])
}

func TestGenerateVideoUnsupportedProvider(t *testing.T) {
	gw, err := provider.NewOpenAIGateway(provider.Config{Provider: "openai", APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	e := New(gw, &memoryStore{}, Options{}, nil)

	post, err := e.GenerateVideo(context.Background(), campaignWithPosts("p").Posts[0])
	require.NoError(t, err)
	assert.Equal(t, campaign.TaskError, post.Video.Status)
	assert.Contains(t, post.Video.Error, "does not support")
}

func TestVideoPromptPrefersVideoScript(t *testing.T) {
	post := campaignWithPosts("img").Posts[0]
	assert.Equal(t, "video script for img", videoPrompt(post))
	post.Variations = nil
	assert.Equal(t, "img", videoPrompt(post))
}
