package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tunely/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEncodeFailure, "encoding", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEncodeFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoding", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrCollaboratorFailure) {
		t.Fatalf("expected collaborator marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestKindAndRecoverable(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		kind        string
		recoverable bool
	}{
		{"input", services.Wrap(services.ErrInputInvalid, "received", "validate", "bad", nil), services.KindInputInvalid, false},
		{"collaborator", services.Wrap(services.ErrCollaboratorFailure, "separating", "", "", nil), services.KindCollaboratorFailure, true},
		{"invariant", services.Wrap(services.ErrBuildInvariant, "building_subtitles", "", "", nil), services.KindBuildInvariant, false},
		{"dependency", services.Wrap(services.ErrDependencyMissing, "encoding", "", "", nil), services.KindDependencyMissing, true},
		{"encode", services.Wrap(services.ErrEncodeFailure, "encoding", "", "", nil), services.KindEncodeFailure, true},
		{"config", services.Wrap(services.ErrConfiguration, "", "", "", nil), services.KindConfiguration, false},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), services.KindCanceled, true},
		{"deadline", context.DeadlineExceeded, services.KindCanceled, true},
		{"unmarked", errors.New("mystery"), services.KindCollaboratorFailure, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Kind(tc.err); got != tc.kind {
				t.Fatalf("Kind = %q, want %q", got, tc.kind)
			}
			if got := services.Recoverable(tc.err); got != tc.recoverable {
				t.Fatalf("Recoverable = %v, want %v", got, tc.recoverable)
			}
		})
	}
	if services.Kind(nil) != "" || services.Recoverable(nil) {
		t.Fatal("nil error should have no kind")
	}
}
