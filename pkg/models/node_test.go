package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uplix/flow/pkg/models"
)

func TestNodeJSONRoundTrip(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		{
			ID:       "n-text",
			Kind:     models.NodeKindText,
			Position: models.Position{X: 10, Y: 20},
			Data:     &models.TextData{Text: "a red bicycle"},
		},
		{
			ID:   "n-image",
			Kind: models.NodeKindImage,
			Data: &models.ImageData{
				Model:     "gpt-image-1",
				Size:      "1024x1024",
				Generated: &models.MediaRef{URL: "https://cdn.example.com/img.png", Type: "image"},
			},
		},
		{
			ID:   "n-video",
			Kind: models.NodeKindVideo,
			Data: &models.VideoData{
				Model:   "sora-2",
				Size:    "1280x720",
				Seconds: 8,
				Content: &models.MediaRef{URL: "https://cdn.example.com/v.mp4", Type: "video"},
			},
		},
		{
			ID:   "n-audio",
			Kind: models.NodeKindAudio,
			Data: &models.AudioData{Model: "elevenlabs/eleven_turbo_v2_5", Voice: "Nicole"},
		},
		{
			ID:   "n-merge",
			Kind: models.NodeKindMerge,
			Data: &models.MergeData{Transition: models.TransitionDissolve},
		},
	}

	for _, node := range nodes {
		t.Run(string(node.Kind), func(t *testing.T) {
			t.Parallel()

			raw, err := json.Marshal(node)
			require.NoError(t, err)

			var decoded models.Node
			require.NoError(t, json.Unmarshal(raw, &decoded))

			assert.Equal(t, node.ID, decoded.ID)
			assert.Equal(t, node.Kind, decoded.Kind)
			assert.Equal(t, node.Position, decoded.Position)
			assert.Equal(t, node.Data, decoded.Data)
		})
	}
}

func TestNodeUnmarshalUnknownKind(t *testing.T) {
	t.Parallel()

	var node models.Node

	err := json.Unmarshal([]byte(`{"id":"x","kind":"spreadsheet","data":{}}`), &node)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node kind")
}

func TestGraphIncomersFollowEdgeOrder(t *testing.T) {
	t.Parallel()

	graph := &models.Graph{
		Nodes: []*models.Node{
			{ID: "a", Kind: models.NodeKindText, Data: &models.TextData{Text: "first"}},
			{ID: "b", Kind: models.NodeKindText, Data: &models.TextData{Text: "second"}},
			{ID: "c", Kind: models.NodeKindImage, Data: &models.ImageData{}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "b", Target: "c"},
			{ID: "e2", Source: "a", Target: "c"},
		},
	}

	incomers := graph.Incomers("c")
	require.Len(t, incomers, 2)
	assert.Equal(t, "b", incomers[0].ID)
	assert.Equal(t, "a", incomers[1].ID)

	assert.Empty(t, graph.Incomers("a"))
	assert.Nil(t, graph.NodeByID("missing"))
}

func TestJobStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, models.JobStatusQueued.Terminal())
	assert.False(t, models.JobStatusGenerating.Terminal())
	assert.False(t, models.JobStatusInProgress.Terminal())
	assert.True(t, models.JobStatusCompleted.Terminal())
	assert.True(t, models.JobStatusError.Terminal())
}
