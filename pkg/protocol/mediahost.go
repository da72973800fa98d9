package protocol

import (
	"context"

	"github.com/uplix/flow/pkg/models"
)

// UploadResult is the durable location assigned by the media host, plus the
// asset duration when the host can derive one (audio and video uploads).
type UploadResult struct {
	URL             string
	DurationSeconds float64
}

// MediaHost stores raw media bytes behind durable URLs and builds
// transformation URLs for compositing. BuildOverlayURL is synchronous URL
// construction with no network round trip.
type MediaHost interface {
	Upload(ctx context.Context, data []byte, mime, folder string) (UploadResult, error)
	BuildOverlayURL(videoURL, audioURL string, transition models.TransitionKind) (string, error)
}
