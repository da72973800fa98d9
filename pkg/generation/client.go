package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Client drives generation requests against the external providers: it
// validates resolved inputs, submits jobs, polls asynchronous jobs to a
// terminal state and normalizes results into durable media references.
type Client struct {
	logger     *slog.Logger
	clock      clockwork.Clock
	tracer     trace.Tracer
	normalizer *media.Normalizer

	images       protocol.ImageGenerator
	vision       protocol.VisionDescriber
	imageToVideo protocol.ImageToVideoProvider
	textToVideo  protocol.TextToVideoProvider
	speech       protocol.SpeechSynthesizer
	host         protocol.MediaHost
}

// Config wires a Client's collaborators. Logger, Clock, Tracer and
// Normalizer are optional; the providers are required by the operations that
// use them and may be nil otherwise.
type Config struct {
	Logger     *slog.Logger
	Clock      clockwork.Clock
	Tracer     trace.Tracer
	Normalizer *media.Normalizer

	Images       protocol.ImageGenerator
	Vision       protocol.VisionDescriber
	ImageToVideo protocol.ImageToVideoProvider
	TextToVideo  protocol.TextToVideoProvider
	Speech       protocol.SpeechSynthesizer
	Host         protocol.MediaHost
}

// NewClient creates a generation client.
func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("generation")
	}

	if cfg.Normalizer == nil {
		cfg.Normalizer = media.NewNormalizer(nil)
	}

	return &Client{
		logger:       cfg.Logger.With("module", "generation"),
		clock:        cfg.Clock,
		tracer:       cfg.Tracer,
		normalizer:   cfg.Normalizer,
		images:       cfg.Images,
		vision:       cfg.Vision,
		imageToVideo: cfg.ImageToVideo,
		textToVideo:  cfg.TextToVideo,
		speech:       cfg.Speech,
		host:         cfg.Host,
	}
}

// wait sleeps one polling interval on the injected clock, honoring context
// cancellation so abandoned jobs stop being observed.
func (c *Client) wait(ctx context.Context, interval time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(interval):
		return nil
	}
}
