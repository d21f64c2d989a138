package preflight

import (
	"context"
	"strings"

	"tunely/internal/config"
)

// CheckStorageFromConfig evaluates publication status from config and connectivity.
func CheckStorageFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Object storage"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Storage.Enabled {
		return Result{Name: name, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return Result{Name: name, Detail: "Missing bucket"}
	}
	if cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
		return Result{Name: name, Detail: "Missing credentials"}
	}
	return CheckStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.UseSSL)
}

// CheckDiarizationFromConfig reports whether speaker diarization will run.
// Without a Hugging Face token every word is attributed to the unknown
// speaker, which is allowed but worth surfacing.
func CheckDiarizationFromConfig(cfg *config.Config) Result {
	const name = "Diarization"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Diarizer.Enabled {
		return Result{Name: name, Detail: "Disabled (all words use the default style)"}
	}
	if strings.TrimSpace(cfg.Diarizer.HFToken) == "" {
		return Result{Name: name, Detail: "Missing Hugging Face token (all words use the default style)"}
	}
	return Result{Name: name, Passed: true, Detail: "Enabled"}
}
