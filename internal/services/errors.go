package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputInvalid        = errors.New("input invalid")
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrBuildInvariant      = errors.New("build invariant violation")
	ErrDependencyMissing   = errors.New("dependency missing")
	ErrEncodeFailure       = errors.New("encode failure")
	ErrConfiguration       = errors.New("configuration error")
	ErrCanceled            = errors.New("canceled")
)

// Failure kinds reported on the request failure surface.
const (
	KindInputInvalid        = "InputInvalid"
	KindCollaboratorFailure = "CollaboratorFailure"
	KindBuildInvariant      = "BuildInvariantViolation"
	KindDependencyMissing   = "DependencyMissing"
	KindEncodeFailure       = "EncodeFailure"
	KindConfiguration       = "Configuration"
	KindCanceled            = "Canceled"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCollaboratorFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its failure kind. Context cancellation is reported as
// Canceled even when the stage did not wrap it; unmarked errors are treated as
// collaborator failures.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrInputInvalid):
		return KindInputInvalid
	case errors.Is(err, ErrBuildInvariant):
		return KindBuildInvariant
	case errors.Is(err, ErrDependencyMissing):
		return KindDependencyMissing
	case errors.Is(err, ErrEncodeFailure):
		return KindEncodeFailure
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindCollaboratorFailure
	}
}

// Recoverable reports whether re-submitting the same input could succeed.
// Invalid input, broken invariants and bad configuration fail the same way
// every time.
func Recoverable(err error) bool {
	switch Kind(err) {
	case KindInputInvalid, KindBuildInvariant, KindConfiguration, "":
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
