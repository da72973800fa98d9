// Package compose combines already-generated media into a single deliverable
// clip. It never generates content itself; it only arranges references that
// upstream nodes produced.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
)

// ErrMissingInput indicates a merge was requested with no video inputs to
// merge.
var ErrMissingInput = errors.New("merge requires at least one video input")

// IsMissingInput reports whether the error is a missing-input error.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

const firstVideoAdvisory = "multiple videos connected; only the first one was used"

// Result is the outcome of a merge. Message carries a non-fatal advisory when
// the composition degraded, such as the first-video fallback.
type Result struct {
	Media   models.MediaRef `json:"media"`
	Message string          `json:"message,omitempty"`
}

// Composer merges resolved media inputs into one video reference.
type Composer struct {
	logger *slog.Logger
	host   protocol.MediaHost
}

// NewComposer creates a composer backed by the given media host.
func NewComposer(logger *slog.Logger, host protocol.MediaHost) *Composer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Composer{
		logger: logger.With("module", "compose"),
		host:   host,
	}
}

// Merge combines the resolved inputs into a single video reference.
//
// Exactly one video plus an audio track composes an overlay on the media
// host. Any other combination degrades: with several videos the first one is
// returned untouched together with an advisory message, and a lone video
// with no audio passes through as-is. The degraded paths always succeed so a
// downstream publish step keeps working.
func (c *Composer) Merge(ctx context.Context, inputs graph.ResolvedInputs, transition models.TransitionKind) (*Result, error) {
	videos := inputs.ReferenceVideoURLs
	if len(videos) == 0 {
		return nil, ErrMissingInput
	}

	advisory := ""
	if len(videos) > 1 {
		c.logger.InfoContext(ctx, "Falling back to first video", "videos", len(videos))

		advisory = firstVideoAdvisory
	}

	if inputs.ReferenceAudioURL == "" {
		return &Result{Media: models.MediaRef{URL: videos[0], Type: "video"}, Message: advisory}, nil
	}

	url, err := c.host.BuildOverlayURL(videos[0], inputs.ReferenceAudioURL, transition)
	if err != nil {
		if len(videos) > 1 {
			// Degraded path: keep the publish flow alive with the raw clip.
			c.logger.WarnContext(ctx, "Audio overlay failed, returning first video", "error", err)

			return &Result{Media: models.MediaRef{URL: videos[0], Type: "video"}, Message: advisory}, nil
		}

		return nil, fmt.Errorf("failed to compose audio overlay: %w", err)
	}

	return &Result{Media: models.MediaRef{URL: url, Type: "video"}, Message: advisory}, nil
}
