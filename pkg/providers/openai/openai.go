// Package openai implements the OpenAI-backed generation providers: image
// generation, vision-based reference description and the text-to-video job
// API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	visionModel     = "gpt-4o"
	visionMaxTokens = 400

	visionPrompt = "Describe this image in detail, focusing on: subjects/characters, " +
		"their appearance, style, composition, color palette, mood, lighting, and " +
		"artistic elements. Be very specific about what makes this image unique."
)

// Config holds the client configuration. APIKey is required; the rest
// default sensibly.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the OpenAI REST API. It implements protocol.ImageGenerator,
// protocol.VisionDescriber and protocol.TextToVideoProvider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an OpenAI API client.
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
		logger:     cfg.Logger.With("module", "openai"),
	}
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate produces a single image. Depending on the model the API answers
// with a fetchable URL or inline base64 data; both are forwarded as-is.
func (c *Client) Generate(ctx context.Context, req protocol.ImageRequest) (protocol.ImageResult, error) {
	payload := imageGenerationRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	}

	// The dall-e family must be asked for URLs explicitly; gpt-image-1
	// rejects the parameter.
	if req.Model == "dall-e-2" || req.Model == "dall-e-3" {
		payload.ResponseFormat = "url"
	}

	var resp imageGenerationResponse
	if err := c.postJSON(ctx, "/images/generations", payload, &resp); err != nil {
		return protocol.ImageResult{}, err
	}

	if len(resp.Data) == 0 {
		return protocol.ImageResult{}, fmt.Errorf("image generation returned no data")
	}

	result := protocol.ImageResult{URL: resp.Data[0].URL}
	if result.URL == "" && resp.Data[0].B64JSON != "" {
		result.InlineData = "data:image/png;base64," + resp.Data[0].B64JSON
	}

	if result.URL == "" && result.InlineData == "" {
		return protocol.ImageResult{}, fmt.Errorf("image generation returned neither url nor inline data")
	}

	return result, nil
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe analyzes an image with the vision chat model and returns a dense
// textual description suitable for prompt enrichment.
func (c *Client) Describe(ctx context.Context, imageURL string) (string, error) {
	payload := chatCompletionRequest{
		Model:     visionModel,
		MaxTokens: visionMaxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: visionPrompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: imageURL}},
			},
		}},
	}

	var resp chatCompletionResponse
	if err := c.postJSON(ctx, "/chat/completions", payload, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision analysis returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

type videoJobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateJob submits a text-to-video generation job. When an inline reference
// image is present the API requires a multipart upload; otherwise a plain
// JSON body is enough.
func (c *Client) CreateJob(ctx context.Context, req protocol.TextToVideoRequest) (protocol.JobHandle, error) {
	var resp videoJobResponse

	if req.InlineImage == "" {
		payload := map[string]string{
			"model":   req.Model,
			"prompt":  req.Prompt,
			"size":    req.Size,
			"seconds": strconv.Itoa(req.Seconds),
		}

		if err := c.postJSON(ctx, "/videos", payload, &resp); err != nil {
			return protocol.JobHandle{}, err
		}
	} else if err := c.createJobMultipart(ctx, req, &resp); err != nil {
		return protocol.JobHandle{}, err
	}

	return protocol.JobHandle{ID: resp.ID, Status: mapVideoStatus(resp.Status)}, nil
}

func (c *Client) createJobMultipart(ctx context.Context, req protocol.TextToVideoRequest, resp *videoJobResponse) error {
	payload, err := media.ParseDataURL(req.InlineImage)
	if err != nil {
		return fmt.Errorf("invalid inline reference: %w", err)
	}

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"size":    req.Size,
		"seconds": strconv.Itoa(req.Seconds),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
	}

	part, err := writer.CreateFormFile("input_reference", "reference.jpg")
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	if _, err := part.Write(payload.Data); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", &body)
	if err != nil {
		return err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(httpReq, resp)
}

// GetJob retrieves the current state of a video job. The response carries
// metadata only; finished bytes come from DownloadResult.
func (c *Client) GetJob(ctx context.Context, jobID string) (protocol.TextToVideoStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+jobID, nil)
	if err != nil {
		return protocol.TextToVideoStatus{}, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp videoJobResponse
	if err := c.do(httpReq, &resp); err != nil {
		return protocol.TextToVideoStatus{}, err
	}

	status := protocol.TextToVideoStatus{
		Status:   mapVideoStatus(resp.Status),
		Progress: resp.Progress,
	}
	if resp.Error != nil {
		status.Error = resp.Error.Message
	}

	return status, nil
}

// DownloadResult fetches the rendered video bytes of a completed job.
func (c *Client) DownloadResult(ctx context.Context, jobID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+jobID+"/content", nil)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("openai api returned status %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func mapVideoStatus(status string) models.JobStatus {
	switch status {
	case "queued":
		return models.JobStatusQueued
	case "in_progress":
		return models.JobStatusInProgress
	case "completed":
		return models.JobStatusCompleted
	case "failed":
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
		return fmt.Errorf("openai api returned status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(data, out)
}
