package cmd

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/uplix/flow/pkg/compose"
	"github.com/uplix/flow/pkg/generation"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/providers/aiml"
	"github.com/uplix/flow/pkg/providers/cloudinary"
	"github.com/uplix/flow/pkg/providers/instagram"
	"github.com/uplix/flow/pkg/providers/openai"
)

// ProviderConfig carries the vendor credentials the binaries read from flags.
type ProviderConfig struct {
	OpenAIAPIKey        string
	AIMLAPIKey          string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Tracer spans generation submits and poll loops. Nil disables tracing.
	Tracer trace.Tracer
}

// Providers bundles the constructed vendor clients and the domain services
// built on top of them.
type Providers struct {
	Generation *generation.Client
	Composer   *compose.Composer
	Normalizer *media.Normalizer
	Host       *cloudinary.Client
	Publisher  *instagram.Client
}

// NewProviders wires the vendor clients into a generation client and
// composer.
func NewProviders(logger *slog.Logger, cfg ProviderConfig) *Providers {
	openaiClient := openai.NewClient(openai.Config{
		APIKey: cfg.OpenAIAPIKey,
		Logger: logger,
	})

	aimlClient := aiml.NewClient(aiml.Config{
		APIKey: cfg.AIMLAPIKey,
		Logger: logger,
	})

	host := cloudinary.NewClient(cloudinary.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Logger:    logger,
	})

	normalizer := media.NewNormalizer(nil)

	client := generation.NewClient(generation.Config{
		Logger:       logger,
		Tracer:       cfg.Tracer,
		Normalizer:   normalizer,
		Images:       openaiClient,
		Vision:       openaiClient,
		ImageToVideo: aimlClient,
		TextToVideo:  openaiClient,
		Speech:       aimlClient,
		Host:         host,
	})

	return &Providers{
		Generation: client,
		Composer:   compose.NewComposer(logger, host),
		Normalizer: normalizer,
		Host:       host,
		Publisher:  instagram.NewClient(instagram.Config{Logger: logger}),
	}
}
