// Package web provides the HTTP surface for workspaces, generation and
// scheduled posts.
package web

import (
	"encoding/json"
	"time"

	"github.com/uplix/flow/pkg/models"
)

// CreateWorkspaceRequest represents the request body for creating a new
// workspace. The graph is optional; an omitted graph starts empty.
type CreateWorkspaceRequest struct {
	Name  string        `json:"name"            validate:"required,min=1"`
	Owner string        `json:"owner,omitempty"`
	Graph *models.Graph `json:"graph,omitempty"`
}

// UpdateWorkspaceRequest represents the request body for updating a
// workspace. All fields are optional to support partial updates.
type UpdateWorkspaceRequest struct {
	Name  *string       `json:"name,omitempty"  validate:"omitempty,min=1"`
	Graph *models.Graph `json:"graph,omitempty"`
}

// CreateNodeRequest represents the request body for adding a node to a
// workspace graph. Data is decoded against the node kind.
type CreateNodeRequest struct {
	ID       string          `json:"id,omitempty"`
	Kind     models.NodeKind `json:"kind"     validate:"required"`
	Position models.Position `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UpdateNodeDataRequest carries a replacement data record for a node. The
// payload is decoded against the stored node's kind.
type UpdateNodeDataRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// CreateEdgeRequest represents the request body for connecting two nodes.
type CreateEdgeRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// GenerateResponse is the outcome of running a node's generation step.
type GenerateResponse struct {
	Media   *models.MediaRef `json:"media,omitempty"`
	Message string           `json:"message,omitempty"`
}

// InlineRequest asks for a URL's byte content as a data URL.
type InlineRequest struct {
	URL string `json:"url" validate:"required"`
}

// InlineResponse carries the normalized inline payload.
type InlineResponse struct {
	DataURL string `json:"data_url"`
	MIME    string `json:"mime"`
}

// UploadRequest stores an inline payload on the media host.
type UploadRequest struct {
	DataURL string `json:"data_url" validate:"required"`
	Kind    string `json:"kind"     validate:"required,oneof=image video audio"`
}

// UploadResponse is the durable location assigned by the media host.
type UploadResponse struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"`
}

// CreateScheduledPostRequest represents the request body for queueing a post.
type CreateScheduledPostRequest struct {
	MediaURL     string    `json:"media_url"       validate:"required,url"`
	MediaType    string    `json:"media_type"      validate:"required,oneof=image video"`
	Caption      string    `json:"caption"`
	ScheduleTime time.Time `json:"schedule_time"   validate:"required"`
	Owner        string    `json:"owner,omitempty"`
}

// PublishRequest pushes a media URL to the social platform immediately.
// Credentials arrive in the request; the API holds no account state.
type PublishRequest struct {
	AccountID   string `json:"account_id"   validate:"required"`
	AccessToken string `json:"access_token" validate:"required"`
	MediaURL    string `json:"media_url"    validate:"required,url"`
	Caption     string `json:"caption"`
}

// PublishResponse carries the platform-assigned id of the published media.
type PublishResponse struct {
	ID string `json:"id"`
}
