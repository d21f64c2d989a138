package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"tunely/internal/services"
)

const filterProbeTimeout = 10 * time.Second

// CheckFFmpegSubtitles reports whether the ffmpeg binary can burn ASS
// subtitles, which requires a build with libass and its "subtitles" filter.
func CheckFFmpegSubtitles(ctx context.Context, ffmpegBinary string, run services.CommandRunner) Status {
	result := Status{
		Name:        "FFmpeg libass",
		Command:     strings.TrimSpace(ffmpegBinary),
		Description: "Required to burn karaoke subtitles into the video",
	}
	if result.Command == "" {
		result.Command = "ffmpeg"
	}
	resolved, err := exec.LookPath(result.Command)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", result.Command)
		return result
	}
	if run == nil {
		run = services.RunCommand
	}

	probeCtx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()
	out, err := run(probeCtx, resolved, "-hide_banner", "-filters")
	if err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}
	if out.ExitCode != 0 {
		result.Detail = fmt.Sprintf("list filters exited with status %d", out.ExitCode)
		return result
	}
	if !hasFilter(out.Stdout, "subtitles") {
		result.Detail = "ffmpeg was built without libass (no subtitles filter)"
		return result
	}
	result.Available = true
	result.Path = resolved
	return result
}

// hasFilter scans "ffmpeg -filters" output, where each filter line is
// " <flags> <name> <io> <description>".
func hasFilter(listing, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
