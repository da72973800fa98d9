// Package events defines the lifecycle events emitted while generating media
// and publishing scheduled posts.
package events

import (
	"time"

	"github.com/uplix/flow/pkg/models"
)

type EventType string

// Topic is the single bus topic all lifecycle events flow through.
const Topic = "uplix.flow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Generation job lifecycle.
	JobCreatedEvent   EventType = "job.created"
	JobCompletedEvent EventType = "job.completed"
	JobFailedEvent    EventType = "job.failed"

	// Scheduled post lifecycle.
	PostPublishedEvent EventType = "post.published"
	PostFailedEvent    EventType = "post.failed"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// JobCreated is emitted when a generation run starts for a node.
type JobCreated struct {
	BaseEvent

	NodeID string          `json:"node_id"`
	Kind   models.NodeKind `json:"kind"`
	Model  string          `json:"model,omitempty"`
}

func (e JobCreated) GetType() EventType {
	return JobCreatedEvent
}

// JobCompleted is emitted when a generation run produced a durable media
// reference.
type JobCompleted struct {
	BaseEvent

	NodeID     string          `json:"node_id"`
	Kind       models.NodeKind `json:"kind"`
	MediaURL   string          `json:"media_url"`
	Message    string          `json:"message,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

func (e JobCompleted) GetType() EventType {
	return JobCompletedEvent
}

// JobFailed is emitted when a generation run ended in an error.
type JobFailed struct {
	BaseEvent

	NodeID     string          `json:"node_id"`
	Kind       models.NodeKind `json:"kind"`
	Error      string          `json:"error"`
	DurationMs int64           `json:"duration_ms"`
}

func (e JobFailed) GetType() EventType {
	return JobFailedEvent
}

// PostPublished is emitted when the scheduler pushed a due post to the social
// platform.
type PostPublished struct {
	BaseEvent

	PostID     string `json:"post_id"`
	MediaType  string `json:"media_type"`
	PlatformID string `json:"platform_id,omitempty"`
}

func (e PostPublished) GetType() EventType {
	return PostPublishedEvent
}

// PostFailed is emitted when publishing a due post failed.
type PostFailed struct {
	BaseEvent

	PostID string `json:"post_id"`
	Error  string `json:"error"`
}

func (e PostFailed) GetType() EventType {
	return PostFailedEvent
}
