package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"tunely/internal/config"
	"tunely/internal/deps"
)

// CheckStorage verifies that an S3-compatible endpoint answers its liveness
// probe. MinIO serves /minio/health/live without credentials.
func CheckStorage(ctx context.Context, endpoint string, useSSL bool) Result {
	const name = "Object storage"

	host := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if host == "" {
		return Result{Name: name, Detail: "missing endpoint"}
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, scheme+"://"+host+"/minio/health/live", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
	return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBackgroundFile verifies that a configured background video is a
// readable regular file. An unusable background is not fatal at render time;
// the encoder falls back to a solid color.
func CheckBackgroundFile(path string) Result {
	const name = "Background video"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (does not exist, solid color will be used)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
// Both the daemon health endpoint and the CLI status command use this to
// avoid duplicating the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for video assembly",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Validates background videos",
			Optional:    true,
		},
		{
			Name:        "audio-separator",
			Command:     cfg.Separator.Command,
			Description: "Runs the vocal/instrumental separation model",
		},
	}
	if cfg.Transcriber.Command != cfg.Separator.Command {
		requirements = append(requirements, deps.Requirement{
			Name:        "WhisperX",
			Command:     cfg.Transcriber.Command,
			Description: "Runs word-level transcription and diarization",
		})
	}
	statuses := deps.CheckBinaries(requirements)
	if statuses[0].Available {
		statuses = append(statuses, deps.CheckFFmpegSubtitles(ctx, cfg.FFmpegBinary(), nil))
	}
	return statuses
}
