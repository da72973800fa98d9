// Package generation provides standardized error types for generation operations.
package generation

import "errors"

// Validation errors are checked before any network call and are never
// retried.
var (
	// ErrMissingPrompt indicates neither a prompt nor a usable reference was resolved.
	ErrMissingPrompt = errors.New("either a prompt or a reference is required")

	// ErrMissingReference indicates a generation family's mandatory image reference is absent.
	ErrMissingReference = errors.New("reference image is required")

	// ErrMissingText indicates speech synthesis was invoked without text.
	ErrMissingText = errors.New("text is required for audio generation")

	// ErrInvalidVoice indicates the requested voice is not in the allow-list.
	ErrInvalidVoice = errors.New("voice is not recognized")
)

// Terminal generation outcomes. A timeout is distinct from a provider-side
// failure: a timed-out job may be worth retrying with patience, while a
// reported generation error is a deterministic provider reject.
var (
	// ErrGenerationFailed indicates the provider explicitly reported failure.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrTimeout indicates the polling ceiling was reached without a terminal state.
	ErrTimeout = errors.New("generation timed out")
)

// IsValidation checks if an error is a validation error that should return HTTP 400.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingPrompt) ||
		errors.Is(err, ErrMissingReference) ||
		errors.Is(err, ErrMissingText) ||
		errors.Is(err, ErrInvalidVoice)
}

// IsTimeout checks if an error is a polling timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsGenerationFailed checks if an error is a provider-reported failure.
func IsGenerationFailed(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}
