package campaign

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTaskLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var task MediaTask
	running, err := task.Begin(now)
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, running.Status)

	_, err = running.Begin(now)
	assert.ErrorIs(t, err, ErrTaskInProgress)

	done, err := running.Complete("/media/a.jpg", "data:image/jpeg;base64,AA==", now)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)
	assert.True(t, done.Settled())

	_, err = done.Begin(now)
	assert.ErrorIs(t, err, ErrPrecondition)
	_, err = done.Fail("late", now)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestMediaTaskFailRequiresInProgress(t *testing.T) {
	_, err := MediaTask{}.Fail("boom", time.Now())
	assert.True(t, errors.Is(err, ErrPrecondition))

	running, _ := MediaTask{}.Begin(time.Now())
	failed, err := running.Fail("boom", time.Now())
	require.NoError(t, err)
	assert.Equal(t, TaskError, failed.Status)
	assert.Equal(t, "boom", failed.Error)
}

func TestCloneDoesNotAlias(t *testing.T) {
	c := Campaign{
		ID:       "c1",
		Analysis: TopicAnalysis{ViralHooks: []string{"a"}, FactCheck: &FactCheckAnalysis{VerifiedClaims: []string{"x"}}},
		Posts: []Post{{
			Variations:      []Variation{{Framework: FrameworkAIDA, Title: "t"}},
			HashtagStrategy: HashtagStrategy{Core: []string{"#go"}},
		}},
	}

	cp := c.Clone()
	cp.Posts[0].Variations[0].Title = "changed"
	cp.Posts[0].HashtagStrategy.Core[0] = "#rust"
	cp.Analysis.ViralHooks[0] = "b"
	cp.Analysis.FactCheck.VerifiedClaims[0] = "y"
	cp.Posts = append(cp.Posts, Post{})

	assert.Equal(t, "t", c.Posts[0].Variations[0].Title)
	assert.Equal(t, "#go", c.Posts[0].HashtagStrategy.Core[0])
	assert.Equal(t, "a", c.Analysis.ViralHooks[0])
	assert.Equal(t, "x", c.Analysis.FactCheck.VerifiedClaims[0])
	assert.Len(t, c.Posts, 1)
}

func TestWithoutPayloads(t *testing.T) {
	c := Campaign{ID: "c1", Posts: []Post{{
		Image: MediaTask{Status: TaskCompleted, URL: "/media/image-1.jpg", Payload: "data:image/jpeg;base64,AAAA"},
		Audio: MediaTask{Status: TaskCompleted, URL: "/media/audio-1.wav", Payload: "data:audio/wav;base64,BBBB"},
	}}}

	light := c.WithoutPayloads()
	assert.Empty(t, light.Posts[0].Image.Payload)
	assert.Empty(t, light.Posts[0].Audio.Payload)
	assert.Equal(t, "/media/image-1.jpg", light.Posts[0].Image.URL)
	assert.Equal(t, TaskCompleted, light.Posts[0].Image.Status)
	assert.NotEmpty(t, c.Posts[0].Image.Payload)
}

func TestProfileOrderIsMonotonic(t *testing.T) {
	for _, p := range []Profile{ProfileFull, ProfileMinimal} {
		steps := p.Steps()
		require.NotEmpty(t, steps)
		for i := 1; i < len(steps); i++ {
			assert.True(t, steps[i-1].Before(steps[i]), "%s: %s should precede %s", p, steps[i-1], steps[i])
		}
		assert.Equal(t, StepDone, steps[len(steps)-1])
	}
	assert.False(t, ProfileMinimal.Includes(StepRevision))
	assert.True(t, ProfileFull.Includes(StepRevision))
}

func TestEventWireForm(t *testing.T) {
	ev := PostEvent{Index: 2, Post: Post{Platform: PlatformLinkedIn, ViralScore: 88}}
	raw, err := MarshalEvent(ev)
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	post, ok := decoded.(PostEvent)
	require.True(t, ok)
	assert.Equal(t, 2, post.Index)
	assert.Equal(t, PlatformLinkedIn, post.Post.Platform)

	raw, err = MarshalEvent(StepEvent{Step: StepDone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"step","step":"DONE"}`, string(raw))

	_, err = UnmarshalEvent([]byte(`{"type":"step","step":"NAP"}`))
	assert.Error(t, err)
}

func TestHashtagStrategyAll(t *testing.T) {
	h := HashtagStrategy{Core: []string{"#a"}, Niche: []string{"#b"}, Trending: []string{"#c", "#d"}}
	assert.Equal(t, []string{"#a", "#b", "#c", "#d"}, h.All())
}
