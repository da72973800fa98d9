package models

import "time"

// ScheduledPostStatus represents the lifecycle state of a scheduled post.
type ScheduledPostStatus string

const (
	ScheduledPostStatusScheduled ScheduledPostStatus = "scheduled"
	ScheduledPostStatusPublished ScheduledPostStatus = "published"
	ScheduledPostStatusFailed    ScheduledPostStatus = "failed"
)

// ScheduledPost is a generated media asset queued for publishing to a social
// platform at a future time. The media URL must already be durable; the post
// holds no reference back into the graph that produced it.
type ScheduledPost struct {
	ID           string              `json:"id"`
	MediaURL     string              `json:"media_url"     validate:"required,url"`
	MediaType    string              `json:"media_type"    validate:"required,oneof=image video"`
	Caption      string              `json:"caption"`
	ScheduleTime time.Time           `json:"schedule_time" validate:"required"`
	Status       ScheduledPostStatus `json:"status"`
	Owner        string              `json:"owner,omitempty"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}
