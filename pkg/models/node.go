// Package models defines core graph models for media-generation workflows
package models

import (
	"encoding/json"
	"fmt"
)

// NodeKind represents the kind of node in a workflow graph.
type NodeKind string

const (
	NodeKindText  NodeKind = "text"
	NodeKindImage NodeKind = "image"
	NodeKindVideo NodeKind = "video"
	NodeKindAudio NodeKind = "audio"
	NodeKindMerge NodeKind = "merge"
)

// Valid reports whether the kind is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindText, NodeKindImage, NodeKindVideo, NodeKindAudio, NodeKindMerge:
		return true
	default:
		return false
	}
}

// MediaRef is a durable, fetchable pointer to a media asset plus its coarse
// type. Once stored on a node it must remain valid across workspace reloads,
// so transient blob handles are never stored here.
type MediaRef struct {
	URL  string `json:"url"  validate:"required"`
	Type string `json:"type"`
}

// Position is the node's location on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the closed per-kind data record attached to a node.
type NodeData interface {
	Kind() NodeKind
}

// TextData holds a manually entered prompt fragment.
type TextData struct {
	Text string `json:"text"`
}

func (*TextData) Kind() NodeKind { return NodeKindText }

// ImageData holds image node state. Content is a user upload, Generated is
// the output of the last generation run; both may coexist and Generated wins
// wherever a single reference is needed.
type ImageData struct {
	Content      *MediaRef `json:"content,omitempty"`
	Generated    *MediaRef `json:"generated,omitempty"`
	Model        string    `json:"model"`
	Size         string    `json:"size"`
	Quality      string    `json:"quality,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
}

func (*ImageData) Kind() NodeKind { return NodeKindImage }

// VideoData holds video node state.
type VideoData struct {
	Content      *MediaRef `json:"content,omitempty"`
	Generated    *MediaRef `json:"generated,omitempty"`
	Model        string    `json:"model"`
	Size         string    `json:"size,omitempty"`
	Seconds      int       `json:"seconds,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
}

func (*VideoData) Kind() NodeKind { return NodeKindVideo }

// AudioData holds audio node state.
type AudioData struct {
	Content      *MediaRef `json:"content,omitempty"`
	Generated    *MediaRef `json:"generated,omitempty"`
	Model        string    `json:"model"`
	Voice        string    `json:"voice"`
	Instructions string    `json:"instructions,omitempty"`
}

func (*AudioData) Kind() NodeKind { return NodeKindAudio }

// TransitionKind enumerates the transitions a merge node accepts.
type TransitionKind string

const (
	TransitionFade      TransitionKind = "fade"
	TransitionDissolve  TransitionKind = "dissolve"
	TransitionWipeLeft  TransitionKind = "wipeleft"
	TransitionWipeRight TransitionKind = "wiperight"
	TransitionSlideUp   TransitionKind = "slideup"
	TransitionSlideDown TransitionKind = "slidedown"
	TransitionNone      TransitionKind = "none"
)

// MergeData holds merge node state.
type MergeData struct {
	Merged     *MediaRef      `json:"merged,omitempty"`
	Transition TransitionKind `json:"transition"`
}

func (*MergeData) Kind() NodeKind { return NodeKindMerge }

// Node represents a node instance in a workflow graph.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Kind     NodeKind `json:"kind"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NewNodeData returns the zero data record for the given kind.
func NewNodeData(kind NodeKind) (NodeData, error) {
	switch kind {
	case NodeKindText:
		return &TextData{}, nil
	case NodeKindImage:
		return &ImageData{}, nil
	case NodeKindVideo:
		return &VideoData{}, nil
	case NodeKindAudio:
		return &AudioData{}, nil
	case NodeKindMerge:
		return &MergeData{Transition: TransitionFade}, nil
	default:
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
}

// nodeAlias avoids recursing into UnmarshalJSON.
type nodeAlias struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"kind"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the data record into the concrete type selected by
// the node kind.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var alias nodeAlias
	if err := json.Unmarshal(raw, &alias); err != nil {
		return err
	}

	data, err := NewNodeData(alias.Kind)
	if err != nil {
		return err
	}

	if len(alias.Data) > 0 {
		if err := json.Unmarshal(alias.Data, data); err != nil {
			return fmt.Errorf("failed to decode %s node data: %w", alias.Kind, err)
		}
	}

	n.ID = alias.ID
	n.Kind = alias.Kind
	n.Position = alias.Position
	n.Data = data

	return nil
}
