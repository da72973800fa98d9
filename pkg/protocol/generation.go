// Package protocol defines the interfaces and contracts for the external
// collaborators the generation core consumes: generation providers, the
// media host, and the social publishing API. Vendor payload shapes stay in
// the provider packages; these contracts carry only what the core needs.
package protocol

import (
	"context"

	"github.com/uplix/flow/pkg/models"
)

// ImageRequest carries the inputs of a synchronous image generation call.
type ImageRequest struct {
	Prompt  string
	Model   string
	Size    string
	Quality string
}

// ImageResult holds either a fetchable URL or inline-encoded image data;
// exactly one is set.
type ImageResult struct {
	URL        string
	InlineData string
}

// ImageGenerator produces an image from a prompt in a single request.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (ImageResult, error)
}

// VisionDescriber produces a textual description of an image. Best-effort:
// callers must tolerate failure and proceed without the description.
type VisionDescriber interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

// JobHandle identifies a submitted asynchronous generation job.
type JobHandle struct {
	ID     string
	Status models.JobStatus
}

// ImageToVideoRequest carries the inputs of an image-to-video job. The image
// reference is mandatory for this provider family.
type ImageToVideoRequest struct {
	Prompt   string
	ImageURL string
	Duration int
	Model    string
}

// ImageToVideoStatus is one observation of an image-to-video job.
type ImageToVideoStatus struct {
	Status          models.JobStatus
	ResultURL       string
	DurationSeconds float64
	Error           string
}

// ImageToVideoProvider is the asynchronous video family that animates a
// single mandatory reference image (submit then poll).
type ImageToVideoProvider interface {
	CreateJob(ctx context.Context, req ImageToVideoRequest) (JobHandle, error)
	GetJob(ctx context.Context, jobID string) (ImageToVideoStatus, error)
}

// TextToVideoRequest carries the inputs of a text-to-video job. The inline
// image reference is optional and, when present, must be an inline payload
// rather than a URL.
type TextToVideoRequest struct {
	Prompt      string
	Size        string
	Seconds     int
	Model       string
	InlineImage string
}

// TextToVideoStatus is one observation of a text-to-video job. The status
// call returns only metadata; completed results are fetched separately via
// DownloadResult.
type TextToVideoStatus struct {
	Status   models.JobStatus
	Progress int
	Error    string
}

// TextToVideoProvider is the asynchronous video family that renders from a
// prompt with an optional inline reference (submit, poll, then download).
type TextToVideoProvider interface {
	CreateJob(ctx context.Context, req TextToVideoRequest) (JobHandle, error)
	GetJob(ctx context.Context, jobID string) (TextToVideoStatus, error)
	DownloadResult(ctx context.Context, jobID string) ([]byte, error)
}

// SpeechRequest carries the inputs of a synchronous speech synthesis call.
type SpeechRequest struct {
	Text  string
	Voice string
	Model string
}

// SpeechSynthesizer converts text to speech in a single request, returning
// raw audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}
