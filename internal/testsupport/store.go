package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"tunely/internal/config"
	"tunely/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRequest writes a small placeholder upload and creates a RECEIVED
// request for it.
func NewRequest(t testing.TB, store *queue.Store, cfg *config.Config, name string) *queue.Request {
	t.Helper()

	id := queue.NewRequestID()
	input := filepath.Join(cfg.Paths.UploadDir, id+"_"+name)
	WriteFile(t, input, 64)
	req, err := store.Create(context.Background(), &queue.Request{
		ID:           id,
		OriginalName: name,
		Artifacts:    queue.Artifacts{InputAudio: input},
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return req
}
