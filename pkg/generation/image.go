package generation

import (
	"context"
	"fmt"

	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/otelhelper"
	"github.com/uplix/flow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultImageModel = "gpt-image-1"
	defaultImageSize  = "1024x1024"

	// Image generation quality sentinel meaning "let the provider decide".
	qualityAuto = "auto"

	imageFolder = "uplix-flow-images"

	fallbackImagePrompt = "Generate an image based on the reference provided"
)

// ImageParams are the per-node image generation parameters.
type ImageParams struct {
	Model        string
	Size         string
	Quality      string
	Instructions string
}

// SubmitImage generates an image from the resolved inputs. The call is
// synchronous from the caller's perspective; when reference images are
// present an internal vision-description step enriches the prompt first, and
// a failure of that step falls back to the un-augmented prompt rather than
// aborting.
func (c *Client) SubmitImage(ctx context.Context, inputs graph.ResolvedInputs, params ImageParams) (*models.MediaRef, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "generation.submit_image",
		attribute.String("model", params.Model),
	)
	defer span.End()

	if params.Model == "" {
		params.Model = defaultImageModel
	}

	if params.Size == "" {
		params.Size = defaultImageSize
	}

	if params.Quality == "" {
		params.Quality = qualityAuto
	}

	if inputs.Prompt == "" && len(inputs.ReferenceImageURLs) == 0 {
		return nil, ErrMissingPrompt
	}

	prompt := inputs.Prompt
	if prompt == "" {
		prompt = fallbackImagePrompt
	}

	if params.Instructions != "" {
		prompt = params.Instructions + "\n\n" + prompt
	}

	if len(inputs.ReferenceImageURLs) > 0 {
		prompt = c.enrichWithVision(ctx, prompt, inputs.ReferenceImageURLs[0])
	}

	req := protocol.ImageRequest{
		Prompt: prompt,
		Model:  params.Model,
		Size:   params.Size,
	}

	// One model family only supports a single fixed output size.
	if params.Model == "dall-e-2" {
		req.Size = defaultImageSize
	}

	// Quality is only understood by some model families, and the auto
	// sentinel is never forwarded.
	if (params.Model == "gpt-image-1" || params.Model == "dall-e-3") && params.Quality != qualityAuto {
		req.Quality = params.Quality
	}

	result, err := c.images.Generate(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return c.normalizeImageResult(ctx, result)
}

// enrichWithVision asks the vision provider to describe the first reference
// image and appends the description with directive language so the generator
// preserves subject and style. The fallback to the original prompt is a
// deliberate single branch here, not a swallowed error further down.
func (c *Client) enrichWithVision(ctx context.Context, prompt, referenceURL string) string {
	description, err := c.vision.Describe(ctx, referenceURL)
	if err != nil || description == "" {
		c.logger.WarnContext(ctx, "Vision description failed, using original prompt", "error", err)

		return prompt
	}

	return prompt +
		"\n\nIMPORTANT - Style and subject reference: " + description +
		"\n\nYou MUST recreate the exact same subjects from the reference while following the new prompt instructions. Match the style, appearance, and aesthetic exactly."
}

// normalizeImageResult accepts either a direct URL or inline-encoded image
// data from the provider and returns a durable media reference; inline data
// is pushed to the media host first so the reference survives reloads.
func (c *Client) normalizeImageResult(ctx context.Context, result protocol.ImageResult) (*models.MediaRef, error) {
	if result.URL != "" {
		return &models.MediaRef{URL: result.URL, Type: "image"}, nil
	}

	if result.InlineData == "" {
		return nil, fmt.Errorf("%w: provider returned neither url nor image data", ErrGenerationFailed)
	}

	payload, err := media.ParseDataURL(result.InlineData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	uploaded, err := c.host.Upload(ctx, payload.Data, payload.MIME, imageFolder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to store image: %v", ErrGenerationFailed, err)
	}

	return &models.MediaRef{URL: uploaded.URL, Type: "image"}, nil
}
