package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunely/internal/logging"
	"tunely/internal/testsupport"
)

func TestObjectKey(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "abc.mp4"},
		{prefix: "karaoke/", want: "karaoke/abc.mp4"},
		{prefix: "karaoke", want: "karaoke/abc.mp4"},
		{prefix: "/nested/dir/", want: "nested/dir/abc.mp4"},
	}
	for _, tc := range cases {
		if got := ObjectKey(tc.prefix, "abc"); got != tc.want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestNewFromConfigDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pub, err := NewFromConfig(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if pub != nil {
		t.Fatal("expected nil publisher when storage is disabled")
	}
}

func TestNewFromConfigRequiresBucket(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage("127.0.0.1:9000", ""))
	if _, err := NewFromConfig(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestObjectURL(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage("127.0.0.1:9000", "songs"))
	pub, err := NewFromConfig(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	got := pub.objectURL(pub.ObjectKey("abc"))
	if got != "http://127.0.0.1:9000/songs/karaoke/abc.mp4" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestPublishRejectsMissingVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorage("127.0.0.1:9000", "songs"))
	pub, err := NewFromConfig(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	_, err = pub.Publish(context.Background(), "abc", filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil || !strings.Contains(err.Error(), "stat video") {
		t.Fatalf("expected stat error, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := pub.Publish(context.Background(), "abc", empty); err == nil {
		t.Fatal("expected error for empty video")
	}
}
