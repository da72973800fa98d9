package graph

import (
	"strings"

	"github.com/uplix/flow/pkg/models"
)

// ResolvedInputs is the typed input bag a generation call consumes, built
// from a node's upstream neighborhood.
type ResolvedInputs struct {
	Prompt             string
	ReferenceImageURLs []string
	ReferenceVideoURLs []string
	ReferenceAudioURL  string
}

// Resolve walks the edges targeting the given node and partitions the source
// nodes' payloads by kind. Text fragments are joined in edge order, with a
// single space for most targets and a blank line for audio targets. Media
// references prefer generated output over uploaded content. Resolve is a
// pure read of the graph snapshot and never fails; absent categories yield
// empty values.
func Resolve(nodeID string, g *models.Graph) ResolvedInputs {
	separator := " "
	if target := g.NodeByID(nodeID); target != nil && target.Kind == models.NodeKindAudio {
		separator = "\n\n"
	}

	var (
		prompts  []string
		resolved ResolvedInputs
	)

	for _, source := range g.Incomers(nodeID) {
		switch data := source.Data.(type) {
		case *models.TextData:
			if data.Text != "" {
				prompts = append(prompts, data.Text)
			}
		case *models.ImageData:
			if url := preferGenerated(data.Generated, data.Content); url != "" {
				resolved.ReferenceImageURLs = append(resolved.ReferenceImageURLs, url)
			}
		case *models.VideoData:
			if url := preferGenerated(data.Generated, data.Content); url != "" {
				resolved.ReferenceVideoURLs = append(resolved.ReferenceVideoURLs, url)
			}
		case *models.AudioData:
			if resolved.ReferenceAudioURL != "" {
				continue
			}

			resolved.ReferenceAudioURL = preferGenerated(data.Generated, data.Content)
		}
	}

	resolved.Prompt = strings.Join(prompts, separator)

	return resolved
}

func preferGenerated(generated, content *models.MediaRef) string {
	if generated != nil && generated.URL != "" {
		return generated.URL
	}

	if content != nil && content.URL != "" {
		return content.URL
	}

	return ""
}
