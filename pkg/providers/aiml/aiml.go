// Package aiml implements the AIML API providers: the kling image-to-video
// job API and ElevenLabs speech synthesis.
package aiml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
)

const (
	defaultBaseURL = "https://api.aimlapi.com"
	defaultTimeout = 120 * time.Second

	klingGenerationPath = "/v2/generate/video/kling/generation"
	ttsPath             = "/v1/tts"
)

// Config holds the client configuration. APIKey is required; the rest
// default sensibly.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the AIML REST API. It implements
// protocol.ImageToVideoProvider and protocol.SpeechSynthesizer.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an AIML API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With("module", "aiml"),
	}
}

type klingCreateRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
	Duration string `json:"duration"`
}

type klingGenerationResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
	Video    *struct {
		URL string `json:"url"`
	} `json:"video"`
}

// CreateJob submits a kling image-to-video generation task. The API takes
// the duration as a string.
func (c *Client) CreateJob(ctx context.Context, req protocol.ImageToVideoRequest) (protocol.JobHandle, error) {
	payload := klingCreateRequest{
		Model:    req.Model,
		Prompt:   req.Prompt,
		ImageURL: req.ImageURL,
		Duration: strconv.Itoa(req.Duration),
	}

	var resp klingGenerationResponse
	if err := c.postJSON(ctx, klingGenerationPath, payload, &resp); err != nil {
		return protocol.JobHandle{}, err
	}

	return protocol.JobHandle{ID: resp.ID, Status: mapKlingStatus(resp.Status)}, nil
}

// GetJob retrieves the current state of a kling generation task. Completed
// tasks carry the result URL directly in the status payload.
func (c *Client) GetJob(ctx context.Context, jobID string) (protocol.ImageToVideoStatus, error) {
	endpoint := c.baseURL + klingGenerationPath + "?generation_id=" + url.QueryEscape(jobID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return protocol.ImageToVideoStatus{}, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	var resp klingGenerationResponse
	if err := c.do(httpReq, &resp); err != nil {
		return protocol.ImageToVideoStatus{}, err
	}

	status := protocol.ImageToVideoStatus{
		Status:          mapKlingStatus(resp.Status),
		DurationSeconds: resp.Duration,
		Error:           resp.Error,
	}
	if resp.Video != nil {
		status.ResultURL = resp.Video.URL
	}

	return status, nil
}

type ttsRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Synthesize converts text to speech and returns the raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, req protocol.SpeechRequest) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{
		Model: req.Model,
		Text:  req.Text,
		Voice: req.Voice,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ttsPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("aiml api returned status %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func mapKlingStatus(status string) models.JobStatus {
	switch status {
	case "queued":
		return models.JobStatusQueued
	case "generating":
		return models.JobStatusGenerating
	case "completed":
		return models.JobStatusCompleted
	case "error":
		return models.JobStatusError
	default:
		return models.JobStatus(status)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
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
		return fmt.Errorf("aiml api returned status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(data, out)
}
