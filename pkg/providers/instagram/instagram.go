// Package instagram implements publishing to Instagram through the Facebook
// Graph API: feed posts from image URLs and reels from video URLs.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/uplix/flow/pkg/protocol"
)

var (
	// ErrMissingCredentials indicates publish was attempted without a
	// connected account.
	ErrMissingCredentials = errors.New("instagram account not connected")

	// ErrProcessingTimeout indicates the platform did not finish processing
	// an uploaded video within the polling window.
	ErrProcessingTimeout = errors.New("video processing timed out")

	// ErrProcessingFailed indicates the platform rejected the uploaded
	// video during processing.
	ErrProcessingFailed = errors.New("video processing failed")
)

const (
	defaultBaseURL = "https://graph.facebook.com/v21.0"
	defaultTimeout = 60 * time.Second

	// Reel containers process asynchronously on the platform side.
	processingPollInterval = 5 * time.Second
	processingMaxAttempts  = 60
)

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Client publishes media through the Graph API. It implements
// protocol.Publisher. Credentials arrive per call; the client holds no
// account state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a Graph API publishing client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		clock:      cfg.Clock,
		logger:     cfg.Logger.With("module", "instagram"),
	}
}

type graphIDResponse struct {
	ID string `json:"id"`
}

// PublishPost publishes an image as a feed post: create a media container
// from the image URL, then publish it. Returns the platform post ID.
func (c *Client) PublishPost(ctx context.Context, creds protocol.Credentials, mediaURL, caption string) (string, error) {
	if creds.AccessToken == "" || creds.AccountID == "" {
		return "", ErrMissingCredentials
	}

	params := url.Values{}
	params.Set("image_url", mediaURL)
	params.Set("caption", caption)
	params.Set("access_token", creds.AccessToken)

	var container graphIDResponse
	if err := c.postForm(ctx, "/"+creds.AccountID+"/media", params, &container); err != nil {
		return "", fmt.Errorf("failed to create media container: %w", err)
	}

	c.logger.InfoContext(ctx, "Media container created", "container_id", container.ID)

	return c.publishContainer(ctx, creds, container.ID)
}

// PublishReel publishes a video as a reel. The platform processes the video
// asynchronously, so the container is polled until it reports FINISHED
// before publishing. Returns the platform reel ID.
func (c *Client) PublishReel(ctx context.Context, creds protocol.Credentials, videoURL, caption string) (string, error) {
	if creds.AccessToken == "" || creds.AccountID == "" {
		return "", ErrMissingCredentials
	}

	payload := map[string]string{
		"media_type":   "REELS",
		"video_url":    videoURL,
		"caption":      caption,
		"access_token": creds.AccessToken,
	}

	var container graphIDResponse
	if err := c.postJSON(ctx, "/"+creds.AccountID+"/media", payload, &container); err != nil {
		return "", fmt.Errorf("failed to create reel container: %w", err)
	}

	c.logger.InfoContext(ctx, "Reel container created", "container_id", container.ID)

	if err := c.waitForProcessing(ctx, creds, container.ID); err != nil {
		return "", err
	}

	return c.publishContainer(ctx, creds, container.ID)
}

func (c *Client) publishContainer(ctx context.Context, creds protocol.Credentials, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", creds.AccessToken)

	var published graphIDResponse
	if err := c.postForm(ctx, "/"+creds.AccountID+"/media_publish", params, &published); err != nil {
		return "", fmt.Errorf("failed to publish: %w", err)
	}

	return published.ID, nil
}

type containerStatusResponse struct {
	StatusCode string `json:"status_code"`
}

func (c *Client) waitForProcessing(ctx context.Context, creds protocol.Credentials, containerID string) error {
	endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s",
		c.baseURL, containerID, url.QueryEscape(creds.AccessToken))

	for attempt := 1; attempt <= processingMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(processingPollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		var status containerStatusResponse
		if err := c.do(req, &status); err != nil {
			c.logger.WarnContext(ctx, "Container status poll failed", "attempt", attempt, "error", err)

			continue
		}

		c.logger.DebugContext(ctx, "Polled container", "attempt", attempt, "status", status.StatusCode)

		switch status.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return ErrProcessingFailed
		}
	}

	return ErrProcessingTimeout
}

func (c *Client) postForm(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("graph api returned status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(data, out)
}
