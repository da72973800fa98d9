package web_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence/file"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/registry"
	"github.com/uplix/flow/pkg/services"
	"github.com/uplix/flow/pkg/web"
)

type fakeHost struct {
	lastFolder string
	lastMIME   string
	url        string
	err        error
}

func (f *fakeHost) Upload(_ context.Context, _ []byte, mime, folder string) (protocol.UploadResult, error) {
	f.lastMIME = mime
	f.lastFolder = folder

	if f.err != nil {
		return protocol.UploadResult{}, f.err
	}

	return protocol.UploadResult{URL: f.url}, nil
}

func (f *fakeHost) BuildOverlayURL(_, _ string, _ models.TransitionKind) (string, error) {
	return "", errors.New("not implemented")
}

type fakePublisher struct {
	lastCreds protocol.Credentials
	lastURL   string
	id        string
	err       error
}

func (f *fakePublisher) PublishPost(_ context.Context, creds protocol.Credentials, mediaURL, _ string) (string, error) {
	f.lastCreds = creds
	f.lastURL = mediaURL

	return f.id, f.err
}

func (f *fakePublisher) PublishReel(_ context.Context, creds protocol.Credentials, videoURL, _ string) (string, error) {
	f.lastCreds = creds
	f.lastURL = videoURL

	return f.id, f.err
}

type testEnv struct {
	app        *fiber.App
	workspaces *services.Workspace
	host       *fakeHost
	publisher  *fakePublisher
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())
	workspaceService := services.NewWorkspace(persistence)
	postService := services.NewScheduledPost(persistence)

	reg := registry.NewRegistry(logger)
	reg.RegisterExecutor(models.NodeKindImage, func(_ context.Context, _ *models.Node, _ graph.ResolvedInputs) (*registry.ExecutionResult, error) {
		return &registry.ExecutionResult{
			Media: &models.MediaRef{URL: "https://cdn.example.com/generated.png", Type: "image"},
		}, nil
	})

	generationService := services.NewGeneration(logger, persistence, reg, nil)

	host := &fakeHost{url: "https://cdn.example.com/uploaded.mp3"}
	publisher := &fakePublisher{id: "ig_media_1"}

	handlers := web.NewAPIHandlers(web.HandlersConfig{
		Workspaces: workspaceService,
		Posts:      postService,
		Generation: generationService,
		Validator:  validator.New(),
		Host:       host,
		Publisher:  publisher,
	})

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return &testEnv{
		app:        app,
		workspaces: workspaceService,
		host:       host,
		publisher:  publisher,
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func createTestWorkspace(t *testing.T, env *testEnv) *models.Workspace {
	t.Helper()

	workspace, err := env.workspaces.Create(context.Background(), &models.Workspace{Name: "Campaign"})
	require.NoError(t, err)

	return workspace
}

func TestWorkspaceEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces", web.CreateWorkspaceRequest{Name: "Summer"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decodeBody[models.Workspace](t, resp)
		assert.Equal(t, "Summer", created.Name)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("create without name", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces", map[string]any{"owner": "u1"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get unknown workspace", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodGet, "/workspaces/missing", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("update and delete", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		name := "Renamed"
		resp := doJSON(t, env.app, http.MethodPatch, "/workspaces/"+workspace.ID, web.UpdateWorkspaceRequest{Name: &name})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		updated := decodeBody[models.Workspace](t, resp)
		assert.Equal(t, "Renamed", updated.Name)

		resp = doJSON(t, env.app, http.MethodDelete, "/workspaces/"+workspace.ID, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodGet, "/workspaces/"+workspace.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodGet, "/workspaces", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		listing := decodeBody[map[string][]models.Workspace](t, resp)
		assert.Len(t, listing["workspaces"], 1)
	})
}

func TestGraphEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("add node with data", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes", map[string]any{
			"id":   "prompt",
			"kind": "text",
			"data": map[string]any{"text": "a red fox"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		stored, err := env.workspaces.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)

		data, ok := stored.Graph.NodeByID("prompt").Data.(*models.TextData)
		require.True(t, ok)
		assert.Equal(t, "a red fox", data.Text)
	})

	t.Run("unknown node kind", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes", map[string]any{
			"id":   "n1",
			"kind": "hologram",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("connect nodes and reject cycles", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		for _, node := range []map[string]any{
			{"id": "a", "kind": "text"},
			{"id": "b", "kind": "image"},
		} {
			resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes", node)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/edges",
			web.CreateEdgeRequest{Source: "a", Target: "b"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		edge := decodeBody[models.Edge](t, resp)
		assert.NotEmpty(t, edge.ID)

		resp = doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/edges",
			web.CreateEdgeRequest{Source: "b", Target: "a"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodDelete, "/workspaces/"+workspace.ID+"/edges/"+edge.ID, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodDelete, "/workspaces/"+workspace.ID+"/edges/"+edge.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("update node data validates against the schema", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes", map[string]any{
			"id":   "img",
			"kind": "image",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodPatch, "/workspaces/"+workspace.ID+"/nodes/img/data", map[string]any{
			"data": map[string]any{"model": "stable-diffusion"},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodPatch, "/workspaces/"+workspace.ID+"/nodes/img/data", map[string]any{
			"data": map[string]any{"model": "dall-e-3", "size": "1024x1024", "quality": "hd"},
		})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		stored, err := env.workspaces.FetchByID(context.Background(), workspace.ID)
		require.NoError(t, err)

		data, ok := stored.Graph.NodeByID("img").Data.(*models.ImageData)
		require.True(t, ok)
		assert.Equal(t, "dall-e-3", data.Model)
		assert.Equal(t, "hd", data.Quality)
	})
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("runs the node and returns the media", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes", map[string]any{
			"id":   "img",
			"kind": "image",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes/img/generate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := decodeBody[web.GenerateResponse](t, resp)
		require.NotNil(t, result.Media)
		assert.Equal(t, "https://cdn.example.com/generated.png", result.Media.URL)
	})

	t.Run("unknown node is 404", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		workspace := createTestWorkspace(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workspaces/"+workspace.ID+"/nodes/missing/generate", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMediaEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("inline conversion decodes data urls locally", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

		resp := doJSON(t, env.app, http.MethodPost, "/media/inline", web.InlineRequest{URL: dataURL})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		inline := decodeBody[web.InlineResponse](t, resp)
		assert.Equal(t, dataURL, inline.DataURL)
		assert.Equal(t, "image/png", inline.MIME)
	})

	t.Run("upload stores bytes under the kind folder", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		dataURL := "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString([]byte("mp3-bytes"))

		resp := doJSON(t, env.app, http.MethodPost, "/media/uploads", web.UploadRequest{
			DataURL: dataURL,
			Kind:    "audio",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		uploaded := decodeBody[web.UploadResponse](t, resp)
		assert.Equal(t, "https://cdn.example.com/uploaded.mp3", uploaded.URL)
		assert.Equal(t, "uplix-audio", env.host.lastFolder)
		assert.Equal(t, "audio/mp3", env.host.lastMIME)
	})

	t.Run("video uploads land in the video folder", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/media/uploads", web.UploadRequest{
			DataURL: "data:video/mp4;base64," + base64.StdEncoding.EncodeToString([]byte("mp4-bytes")),
			Kind:    string(models.MediaKindVideo),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "uplix-flow-videos", env.host.lastFolder)
	})

	t.Run("upload rejects unknown kinds", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/media/uploads", web.UploadRequest{
			DataURL: "data:image/png;base64,aGk=",
			Kind:    "gif",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("upload rejects malformed payloads", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/media/uploads", web.UploadRequest{
			DataURL: "data:image/png",
			Kind:    "image",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestScheduledPostEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("create and list", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/scheduled-posts", web.CreateScheduledPostRequest{
			MediaURL:     "https://cdn.example.com/clip.mp4",
			MediaType:    "video",
			Caption:      "launch",
			ScheduleTime: time.Now().Add(time.Hour).UTC(),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decodeBody[models.ScheduledPost](t, resp)
		assert.Equal(t, models.ScheduledPostStatusScheduled, created.Status)

		resp = doJSON(t, env.app, http.MethodGet, "/scheduled-posts", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		listing := decodeBody[map[string][]models.ScheduledPost](t, resp)
		assert.Len(t, listing["scheduled_posts"], 1)
	})

	t.Run("invalid media type", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/scheduled-posts", web.CreateScheduledPostRequest{
			MediaURL:     "https://cdn.example.com/clip.gif",
			MediaType:    "gif",
			ScheduleTime: time.Now().Add(time.Hour).UTC(),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete unknown post", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodDelete, "/scheduled-posts/missing", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPublishEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("publishes a post with request credentials", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/publish/post", web.PublishRequest{
			AccountID:   "account-1",
			AccessToken: "token-1",
			MediaURL:    "https://cdn.example.com/pic.png",
			Caption:     "hello",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		published := decodeBody[web.PublishResponse](t, resp)
		assert.Equal(t, "ig_media_1", published.ID)
		assert.Equal(t, "account-1", env.publisher.lastCreds.AccountID)
		assert.Equal(t, "https://cdn.example.com/pic.png", env.publisher.lastURL)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/publish/reel", web.PublishRequest{
			MediaURL: "https://cdn.example.com/clip.mp4",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
