package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/otelhelper"
	"github.com/uplix/flow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultVideoModel = "sora-2"
	defaultVideoSize  = "1280x720"

	videoFolder = "uplix-flow-videos"

	fallbackAnimatePrompt = "Animate this image"
	fallbackVideoPrompt   = "Generate a video based on the reference provided"

	// Image-to-video jobs render slowly; poll sparsely with a generous ceiling.
	imageToVideoPollInterval = 10 * time.Second
	imageToVideoMaxAttempts  = 120

	// Text-to-video jobs report progress quickly; poll tightly.
	textToVideoPollInterval = 2 * time.Second
	textToVideoMaxAttempts  = 180
)

// ImageToVideoDurations are the only durations the image-to-video family
// accepts; out-of-set values clamp to the nearest permitted one.
var ImageToVideoDurations = []int{5, 10}

// TextToVideoDurations are the durations the text-to-video family accepts.
var TextToVideoDurations = []int{4, 8, 12}

// VideoParams are the per-node video generation parameters.
type VideoParams struct {
	Model        string
	Size         string
	Seconds      int
	Instructions string
}

// SubmitVideo generates a video from the resolved inputs. The model
// identifier selects between two independent provider families with
// different preconditions, polling cadences and result retrieval.
func (c *Client) SubmitVideo(ctx context.Context, inputs graph.ResolvedInputs, params VideoParams) (*models.MediaRef, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "generation.submit_video",
		attribute.String("model", params.Model),
	)
	defer span.End()

	if params.Model == "" {
		params.Model = defaultVideoModel
	}

	if isImageToVideoModel(params.Model) {
		return c.submitImageToVideo(ctx, inputs, params)
	}

	return c.submitTextToVideo(ctx, inputs, params)
}

func isImageToVideoModel(model string) bool {
	return strings.HasPrefix(model, "kling")
}

// submitImageToVideo drives the family that animates a single mandatory
// reference image: submit, then poll every 10s up to the attempt ceiling.
func (c *Client) submitImageToVideo(ctx context.Context, inputs graph.ResolvedInputs, params VideoParams) (*models.MediaRef, error) {
	if len(inputs.ReferenceImageURLs) == 0 {
		return nil, ErrMissingReference
	}

	imageURL, err := c.durableReferenceURL(ctx, inputs.ReferenceImageURLs[0])
	if err != nil {
		return nil, err
	}

	prompt := inputs.Prompt
	if prompt == "" {
		prompt = fallbackAnimatePrompt
	}

	if params.Instructions != "" {
		prompt = params.Instructions + "\n\n" + prompt
	}

	handle, err := c.imageToVideo.CreateJob(ctx, protocol.ImageToVideoRequest{
		Prompt:   prompt,
		ImageURL: imageURL,
		Duration: clampDuration(params.Seconds, ImageToVideoDurations),
		Model:    params.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	logger := c.logger.With("job_id", handle.ID, "model", params.Model)
	logger.InfoContext(ctx, "Image-to-video job created", "status", handle.Status)

	for attempt := 1; attempt <= imageToVideoMaxAttempts; attempt++ {
		if err := c.wait(ctx, imageToVideoPollInterval); err != nil {
			return nil, err
		}

		status, err := c.imageToVideo.GetJob(ctx, handle.ID)
		if err != nil {
			logger.WarnContext(ctx, "Poll failed", "attempt", attempt, "error", err)

			continue
		}

		logger.DebugContext(ctx, "Polled job", "attempt", attempt, "status", status.Status)

		switch status.Status {
		case models.JobStatusCompleted:
			return &models.MediaRef{URL: status.ResultURL, Type: "video"}, nil
		case models.JobStatusError:
			return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, status.Error)
		}
	}

	return nil, ErrTimeout
}

// submitTextToVideo drives the prompt-first family: submit with an optional
// inline reference, poll every 2s, then download the finished bytes (the
// status call returns only metadata) and store them durably.
func (c *Client) submitTextToVideo(ctx context.Context, inputs graph.ResolvedInputs, params VideoParams) (*models.MediaRef, error) {
	if inputs.Prompt == "" && len(inputs.ReferenceImageURLs) == 0 {
		return nil, ErrMissingPrompt
	}

	prompt := inputs.Prompt
	if prompt == "" {
		prompt = fallbackVideoPrompt
	}

	if params.Instructions != "" {
		prompt = params.Instructions + "\n\n" + prompt
	}

	if params.Size == "" {
		params.Size = defaultVideoSize
	}

	if params.Seconds == 0 {
		params.Seconds = 8
	}

	req := protocol.TextToVideoRequest{
		Prompt:  prompt,
		Size:    params.Size,
		Seconds: clampDuration(params.Seconds, TextToVideoDurations),
		Model:   params.Model,
	}

	// The reference is optional here: a failed conversion drops it rather
	// than aborting the generation.
	if len(inputs.ReferenceImageURLs) > 0 {
		payload, err := c.normalizer.ToInline(ctx, inputs.ReferenceImageURLs[0])
		if err != nil {
			c.logger.WarnContext(ctx, "Dropping unusable reference image", "error", err)
		} else {
			req.InlineImage = payload.DataURL()
		}
	}

	handle, err := c.textToVideo.CreateJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	logger := c.logger.With("job_id", handle.ID, "model", params.Model)
	logger.InfoContext(ctx, "Text-to-video job created", "status", handle.Status)

	status := protocol.TextToVideoStatus{Status: handle.Status}

	for attempt := 0; attempt < textToVideoMaxAttempts && !status.Status.Terminal(); attempt++ {
		if err := c.wait(ctx, textToVideoPollInterval); err != nil {
			return nil, err
		}

		status, err = c.textToVideo.GetJob(ctx, handle.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		logger.DebugContext(ctx, "Polled job", "attempt", attempt+1, "status", status.Status, "progress", status.Progress)
	}

	if status.Status == models.JobStatusError {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, status.Error)
	}

	if status.Status != models.JobStatusCompleted {
		return nil, ErrTimeout
	}

	data, err := c.textToVideo.DownloadResult(ctx, handle.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download result: %v", ErrGenerationFailed, err)
	}

	uploaded, err := c.host.Upload(ctx, data, "video/mp4", videoFolder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to store video: %v", ErrGenerationFailed, err)
	}

	return &models.MediaRef{URL: uploaded.URL, Type: "video"}, nil
}

// durableReferenceURL ensures a reference is a fetchable URL the provider
// can reach, uploading inline payloads to the media host when needed.
func (c *Client) durableReferenceURL(ctx context.Context, url string) (string, error) {
	if !media.IsDataURL(url) {
		return url, nil
	}

	payload, err := media.ParseDataURL(url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	uploaded, err := c.host.Upload(ctx, payload.Data, payload.MIME, "uplix-kling-references")
	if err != nil {
		return "", fmt.Errorf("%w: failed to stage reference: %v", ErrGenerationFailed, err)
	}

	return uploaded.URL, nil
}

// clampDuration snaps a requested duration to the nearest permitted value.
func clampDuration(seconds int, permitted []int) int {
	best := permitted[0]

	for _, candidate := range permitted {
		if abs(seconds-candidate) < abs(seconds-best) {
			best = candidate
		}
	}

	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
