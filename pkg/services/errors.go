// Package services provides the application services sitting between the HTTP
// surface and persistence, generation and publishing.
package services

import (
	"errors"
	"fmt"

	"github.com/uplix/flow/pkg/graph"
)

// Business logic errors that map to client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrWorkspaceNil          = errors.New("workspace cannot be nil")
	ErrWorkspaceNameRequired = errors.New("workspace name is required")
	ErrPostNil               = errors.New("scheduled post cannot be nil")
	ErrNodeNotRunnable       = errors.New("node kind cannot be generated")

	// ErrNodeNotFound indicates the node id does not exist in the workspace
	// graph (404 Not Found).
	ErrNodeNotFound = errors.New("node not found in workspace graph")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400. Graph mutation errors count: a malformed edge or node is a
// client mistake, not a server fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkspaceNil) ||
		errors.Is(err, ErrWorkspaceNameRequired) ||
		errors.Is(err, ErrPostNil) ||
		errors.Is(err, ErrNodeNotRunnable) ||
		errors.Is(err, graph.ErrDuplicateNodeID) ||
		errors.Is(err, graph.ErrDuplicateEdgeID) ||
		errors.Is(err, graph.ErrSelfLoop) ||
		errors.Is(err, graph.ErrCycle) ||
		errors.Is(err, graph.ErrUnknownNodeKind) ||
		errors.Is(err, graph.ErrKindMismatch)
}

// IsNotFoundError checks if an error refers to a missing entity inside an
// otherwise valid request (404 Not Found).
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, graph.ErrNodeNotFound) ||
		errors.Is(err, graph.ErrEdgeNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
