package models

import "time"

// Workspace is a saved workflow graph with a display name.
type Workspace struct {
	ID        string     `json:"id"`
	Name      string     `json:"name" validate:"required,min=1"`
	Graph     Graph      `json:"graph"`
	Owner     string     `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
