package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence/file"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/services"
)

type fakePublisher struct {
	postCalls []string
	reelCalls []string
	err       error
}

func (f *fakePublisher) PublishPost(_ context.Context, _ protocol.Credentials, mediaURL, _ string) (string, error) {
	f.postCalls = append(f.postCalls, mediaURL)

	return "post_1", f.err
}

func (f *fakePublisher) PublishReel(_ context.Context, _ protocol.Credentials, videoURL, _ string) (string, error) {
	f.reelCalls = append(f.reelCalls, videoURL)

	return "reel_1", f.err
}

type sweepFixture struct {
	dispatcher *Dispatcher
	posts      *services.ScheduledPost
	publisher  *fakePublisher
}

func newSweepFixture(t *testing.T, publisher *fakePublisher) *sweepFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	posts := services.NewScheduledPost(file.NewPersistence(t.TempDir()))

	creds := protocol.Credentials{AccountID: "account-1", AccessToken: "token-1"}

	return &sweepFixture{
		dispatcher: NewDispatcher(logger, posts, publisher, creds, nil),
		posts:      posts,
		publisher:  publisher,
	}
}

func (f *sweepFixture) queuePost(t *testing.T, mediaType string, scheduleTime time.Time) *models.ScheduledPost {
	t.Helper()

	post, err := f.posts.Create(context.Background(), &models.ScheduledPost{
		MediaURL:     "https://cdn.example.com/media.bin",
		MediaType:    mediaType,
		Caption:      "caption",
		ScheduleTime: scheduleTime,
	})
	require.NoError(t, err)

	return post
}

func TestSweep(t *testing.T) {
	t.Parallel()

	t.Run("publishes due posts and marks them published", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{}
		fixture := newSweepFixture(t, publisher)

		overdue := fixture.queuePost(t, "image", time.Now().Add(-time.Minute).UTC())
		fixture.queuePost(t, "image", time.Now().Add(time.Hour).UTC())

		fixture.dispatcher.Sweep(context.Background())

		assert.Len(t, publisher.postCalls, 1)

		stored, err := fixture.posts.FetchByID(context.Background(), overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ScheduledPostStatusPublished, stored.Status)
	})

	t.Run("videos go out as reels", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{}
		fixture := newSweepFixture(t, publisher)

		fixture.queuePost(t, "video", time.Now().Add(-time.Minute).UTC())

		fixture.dispatcher.Sweep(context.Background())

		assert.Empty(t, publisher.postCalls)
		assert.Len(t, publisher.reelCalls, 1)
	})

	t.Run("publish failure marks the post failed with the cause", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{err: errors.New("media unreachable")}
		fixture := newSweepFixture(t, publisher)

		post := fixture.queuePost(t, "image", time.Now().Add(-time.Minute).UTC())

		fixture.dispatcher.Sweep(context.Background())

		stored, err := fixture.posts.FetchByID(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ScheduledPostStatusFailed, stored.Status)
		assert.Equal(t, "media unreachable", stored.Error)
	})

	t.Run("published posts are not swept again", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{}
		fixture := newSweepFixture(t, publisher)

		fixture.queuePost(t, "image", time.Now().Add(-time.Minute).UTC())

		fixture.dispatcher.Sweep(context.Background())
		fixture.dispatcher.Sweep(context.Background())

		assert.Len(t, publisher.postCalls, 1)
	})
}
