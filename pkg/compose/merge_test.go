package compose_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/compose"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
)

type fakeOverlayHost struct {
	calls          int
	lastVideo      string
	lastAudio      string
	lastTransition models.TransitionKind
	url            string
	err            error
}

func (f *fakeOverlayHost) Upload(_ context.Context, _ []byte, _, _ string) (protocol.UploadResult, error) {
	return protocol.UploadResult{}, errors.New("not implemented")
}

func (f *fakeOverlayHost) BuildOverlayURL(videoURL, audioURL string, transition models.TransitionKind) (string, error) {
	f.calls++
	f.lastVideo = videoURL
	f.lastAudio = audioURL
	f.lastTransition = transition

	return f.url, f.err
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("no videos is an input error", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{}
		composer := compose.NewComposer(nil, host)

		_, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{ReferenceAudioURL: "https://cdn/track.mp3"},
			models.TransitionFade)
		assert.ErrorIs(t, err, compose.ErrMissingInput)
		assert.True(t, compose.IsMissingInput(err))
		assert.Zero(t, host.calls)
	})

	t.Run("one video with audio composes an overlay", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{url: "https://cdn/overlay.mp4"}
		composer := compose.NewComposer(nil, host)

		result, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{
				ReferenceVideoURLs: []string{"https://cdn/clip.mp4"},
				ReferenceAudioURL:  "https://cdn/track.mp3",
			},
			models.TransitionDissolve)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/overlay.mp4", result.Media.URL)
		assert.Equal(t, "video", result.Media.Type)
		assert.Empty(t, result.Message)
		assert.Equal(t, "https://cdn/clip.mp4", host.lastVideo)
		assert.Equal(t, "https://cdn/track.mp3", host.lastAudio)
		assert.Equal(t, models.TransitionDissolve, host.lastTransition)
	})

	t.Run("overlay failure propagates", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{err: errors.New("unsupported format")}
		composer := compose.NewComposer(nil, host)

		_, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{
				ReferenceVideoURLs: []string{"https://cdn/clip.mp4"},
				ReferenceAudioURL:  "https://cdn/track.mp3",
			},
			models.TransitionNone)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("multiple videos overlay audio on the first with an advisory", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{url: "https://cdn/overlay.mp4"}
		composer := compose.NewComposer(nil, host)

		result, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{
				ReferenceVideoURLs: []string{"https://cdn/a.mp4", "https://cdn/b.mp4", "https://cdn/c.mp4"},
				ReferenceAudioURL:  "https://cdn/track.mp3",
			},
			models.TransitionWipeLeft)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/overlay.mp4", result.Media.URL)
		assert.NotEmpty(t, result.Message)
		assert.Equal(t, "https://cdn/a.mp4", host.lastVideo)
	})

	t.Run("multiple videos degrade to the raw first clip when overlay fails", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{err: errors.New("not a cloudinary url")}
		composer := compose.NewComposer(nil, host)

		result, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{
				ReferenceVideoURLs: []string{"https://cdn/a.mp4", "https://cdn/b.mp4"},
				ReferenceAudioURL:  "https://cdn/track.mp3",
			},
			models.TransitionFade)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.mp4", result.Media.URL)
		assert.NotEmpty(t, result.Message)
	})

	t.Run("multiple videos without audio fall back with an advisory", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{}
		composer := compose.NewComposer(nil, host)

		result, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{
				ReferenceVideoURLs: []string{"https://cdn/a.mp4", "https://cdn/b.mp4"},
			},
			models.TransitionNone)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.mp4", result.Media.URL)
		assert.NotEmpty(t, result.Message)
		assert.Zero(t, host.calls)
	})

	t.Run("lone video without audio passes through", func(t *testing.T) {
		t.Parallel()

		host := &fakeOverlayHost{}
		composer := compose.NewComposer(nil, host)

		result, err := composer.Merge(context.Background(),
			graph.ResolvedInputs{ReferenceVideoURLs: []string{"https://cdn/clip.mp4"}},
			models.TransitionNone)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/clip.mp4", result.Media.URL)
		assert.Empty(t, result.Message)
		assert.Zero(t, host.calls)
	})
}
