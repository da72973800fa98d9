package instagram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/providers/instagram"
)

var testCreds = protocol.Credentials{AccessToken: "token", AccountID: "17841400000000000"}

func TestPublishPost(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing credentials before any network call", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
		}))
		t.Cleanup(server.Close)

		client := instagram.NewClient(instagram.Config{BaseURL: server.URL})

		_, err := client.PublishPost(context.Background(), protocol.Credentials{}, "https://cdn/img.png", "hi")
		assert.ErrorIs(t, err, instagram.ErrMissingCredentials)
		assert.Zero(t, calls.Load())
	})

	t.Run("creates a container then publishes it", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/media"):
				assert.Equal(t, "https://cdn/img.png", r.URL.Query().Get("image_url"))
				assert.Equal(t, "hello", r.URL.Query().Get("caption"))
				assert.Equal(t, "token", r.URL.Query().Get("access_token"))

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "container_1"})
			case strings.HasSuffix(r.URL.Path, "/media_publish"):
				assert.Equal(t, "container_1", r.URL.Query().Get("creation_id"))

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "post_1"})
			default:
				t.Errorf("unexpected request: %s", r.URL.Path)
			}
		}))
		t.Cleanup(server.Close)

		client := instagram.NewClient(instagram.Config{BaseURL: server.URL})

		postID, err := client.PublishPost(context.Background(), testCreds, "https://cdn/img.png", "hello")
		require.NoError(t, err)
		assert.Equal(t, "post_1", postID)
	})

	t.Run("container failure aborts before publish", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"invalid token"}}`, http.StatusBadRequest)
		}))
		t.Cleanup(server.Close)

		client := instagram.NewClient(instagram.Config{BaseURL: server.URL})

		_, err := client.PublishPost(context.Background(), testCreds, "https://cdn/img.png", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "media container")
	})
}

func TestPublishReel(t *testing.T) {
	t.Parallel()

	// advance drives the fake clock while a publish call is blocked on the
	// processing poll interval.
	advance := func(t *testing.T, clock *clockwork.FakeClock) (stop func()) {
		t.Helper()

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			for {
				if err := clock.BlockUntilContext(ctx, 1); err != nil {
					return
				}

				clock.Advance(5 * time.Second)
			}
		}()

		return cancel
	}

	t.Run("waits for processing before publishing", func(t *testing.T) {
		t.Parallel()

		var statusPolls atomic.Int64

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/media"):
				var received map[string]string

				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				assert.Equal(t, "REELS", received["media_type"])
				assert.Equal(t, "https://cdn/reel.mp4", received["video_url"])

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "container_9"})
			case r.Method == http.MethodGet:
				status := "IN_PROGRESS"
				if statusPolls.Add(1) >= 3 {
					status = "FINISHED"
				}

				_ = json.NewEncoder(w).Encode(map[string]string{"status_code": status})
			case strings.HasSuffix(r.URL.Path, "/media_publish"):
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "reel_1"})
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))
		t.Cleanup(server.Close)

		clock := clockwork.NewFakeClock()
		client := instagram.NewClient(instagram.Config{BaseURL: server.URL, Clock: clock})

		stop := advance(t, clock)
		defer stop()

		reelID, err := client.PublishReel(context.Background(), testCreds, "https://cdn/reel.mp4", "caption")
		require.NoError(t, err)
		assert.Equal(t, "reel_1", reelID)
		assert.GreaterOrEqual(t, statusPolls.Load(), int64(3))
	})

	t.Run("processing error fails the publish", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				_ = json.NewEncoder(w).Encode(map[string]string{"status_code": "ERROR"})

				return
			}

			_ = json.NewEncoder(w).Encode(map[string]string{"id": "container_9"})
		}))
		t.Cleanup(server.Close)

		clock := clockwork.NewFakeClock()
		client := instagram.NewClient(instagram.Config{BaseURL: server.URL, Clock: clock})

		stop := advance(t, clock)
		defer stop()

		_, err := client.PublishReel(context.Background(), testCreds, "https://cdn/reel.mp4", "caption")
		assert.ErrorIs(t, err, instagram.ErrProcessingFailed)
	})

	t.Run("processing that never finishes times out", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				_ = json.NewEncoder(w).Encode(map[string]string{"status_code": "IN_PROGRESS"})

				return
			}

			_ = json.NewEncoder(w).Encode(map[string]string{"id": "container_9"})
		}))
		t.Cleanup(server.Close)

		clock := clockwork.NewFakeClock()
		client := instagram.NewClient(instagram.Config{BaseURL: server.URL, Clock: clock})

		stop := advance(t, clock)
		defer stop()

		_, err := client.PublishReel(context.Background(), testCreds, "https://cdn/reel.mp4", "caption")
		assert.ErrorIs(t, err, instagram.ErrProcessingTimeout)
	})
}
