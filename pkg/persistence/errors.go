// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkspaceNotFound indicates a workspace was not found by the given identifier.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceAlreadyExists indicates a workspace with the same identifier already exists.
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")

	// ErrScheduledPostNotFound indicates a scheduled post was not found by the given identifier.
	ErrScheduledPostNotFound = errors.New("scheduled post not found")
)

// WorkspaceError wraps workspace-related errors with additional context.
type WorkspaceError struct {
	Op          string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkspaceID string
	Err         error
	Message     string
}

func (e *WorkspaceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workspace %s: %s (%v)", e.Op, e.WorkspaceID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workspace %s: %v", e.Op, e.WorkspaceID, e.Err)
}

func (e *WorkspaceError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workspace errors.
func (e *WorkspaceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkspaceError creates a new workspace error with context.
func NewWorkspaceError(op, workspaceID string, err error) *WorkspaceError {
	return &WorkspaceError{
		Op:          op,
		WorkspaceID: workspaceID,
		Err:         err,
	}
}

// ScheduledPostError wraps scheduled-post errors with additional context.
type ScheduledPostError struct {
	Op     string
	PostID string
	Err    error
}

func (e *ScheduledPostError) Error() string {
	return fmt.Sprintf("%s operation failed for scheduled post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *ScheduledPostError) Unwrap() error {
	return e.Err
}

func (e *ScheduledPostError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewScheduledPostError creates a new scheduled post error with context.
func NewScheduledPostError(op, postID string, err error) *ScheduledPostError {
	return &ScheduledPostError{
		Op:     op,
		PostID: postID,
		Err:    err,
	}
}

// IsWorkspaceNotFound checks if an error indicates a workspace was not found.
func IsWorkspaceNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound)
}

// IsScheduledPostNotFound checks if an error indicates a scheduled post was not found.
func IsScheduledPostNotFound(err error) bool {
	return errors.Is(err, ErrScheduledPostNotFound)
}
