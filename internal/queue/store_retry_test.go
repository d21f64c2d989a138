package queue

import (
	"context"
	"errors"
	"testing"
)

func TestWithBusyRetry(t *testing.T) {
	locked := errors.New("database is locked")
	other := errors.New("no such table")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", wantCalls: 1},
		{name: "recovers after busy", failures: []error{locked, locked}, wantCalls: 3},
		{name: "stops on other errors", failures: []error{other}, wantCalls: 1, wantErr: other},
		{name: "gives up", failures: []error{locked, locked, locked, locked, locked, locked}, wantCalls: busyRetryAttempts, wantErr: locked},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got, err := withBusyRetry(context.Background(), func() (int, error) {
				calls++
				if calls <= len(tc.failures) {
					return 0, tc.failures[calls-1]
				}
				return 7, nil
			})
			if calls != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, calls)
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr == nil && got != 7 {
				t.Fatalf("expected result 7, got %d", got)
			}
		})
	}
}

func TestWithBusyRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := withBusyRetry(ctx, func() (int, error) {
		return 0, errors.New("database is locked")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
