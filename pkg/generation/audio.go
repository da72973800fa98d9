package generation

import (
	"context"
	"fmt"
	"slices"

	"github.com/uplix/flow/pkg/graph"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/otelhelper"
	"github.com/uplix/flow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultSpeechModel = "elevenlabs/eleven_turbo_v2_5"
	defaultVoice       = "Nicole"

	audioFolder = "uplix-audio"
)

// Voices is the fixed allow-list of speech voices. Requests naming any other
// voice are rejected client-side before a network call is made.
var Voices = []string{
	"Rachel", "Drew", "Clyde", "Paul", "Aria", "Domi", "Dave", "Roger",
	"Fin", "Sarah", "Antoni", "Laura", "Thomas", "Charlie", "George",
	"Emily", "Elli", "Callum", "Patrick", "River", "Harry", "Liam",
	"Dorothy", "Josh", "Arnold", "Charlotte", "Alice", "Matilda", "James",
	"Joseph", "Will", "Jeremy", "Jessica", "Eric", "Michael", "Ethan",
	"Chris", "Gigi", "Freya", "Santa Claus", "Brian", "Grace", "Daniel",
	"Lily", "Serena", "Adam", "Nicole", "Bill", "Jessie", "Sam", "Glinda",
	"Giovanni", "Mimi",
}

// AudioParams are the per-node speech synthesis parameters.
type AudioParams struct {
	Model        string
	Voice        string
	Instructions string
}

// SubmitAudio synthesizes speech from the resolved text. The provider is
// synchronous, so there is no polling; the raw audio bytes are stored on the
// media host and returned as a durable reference.
func (c *Client) SubmitAudio(ctx context.Context, inputs graph.ResolvedInputs, params AudioParams) (*models.MediaRef, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "generation.submit_audio",
		attribute.String("voice", params.Voice),
	)
	defer span.End()

	if params.Model == "" {
		params.Model = defaultSpeechModel
	}

	if params.Voice == "" {
		params.Voice = defaultVoice
	}

	text := inputs.Prompt
	if params.Instructions != "" {
		text = params.Instructions + "\n\n" + text
	}

	if text == "" {
		return nil, ErrMissingText
	}

	if !slices.Contains(Voices, params.Voice) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVoice, params.Voice)
	}

	data, err := c.speech.Synthesize(ctx, protocol.SpeechRequest{
		Text:  text,
		Voice: params.Voice,
		Model: params.Model,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	uploaded, err := c.host.Upload(ctx, data, "audio/mpeg", audioFolder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to store audio: %v", ErrGenerationFailed, err)
	}

	return &models.MediaRef{URL: uploaded.URL, Type: "audio/mp3"}, nil
}
