package queue

import (
	"errors"
	"strings"

	"tunely/internal/services"
)

var (
	// ErrNotFound is returned when a request ID does not exist.
	ErrNotFound = errors.New("request not found")
	// ErrInvalidTransition is returned when a status change skips or reverses
	// the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// FailureFromError maps a stage error to the failure surface persisted on a
// FAILED request. The kind and recoverability come from the services error
// taxonomy; the reason carries the diagnostic text.
func FailureFromError(stage string, err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{
		Stage:       strings.TrimSpace(stage),
		Kind:        services.Kind(err),
		Reason:      err.Error(),
		Recoverable: services.Recoverable(err),
	}
}
