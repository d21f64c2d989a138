package api

import (
	"path/filepath"
	"strings"

	"tunely/internal/queue"
	"tunely/internal/textutil"
)

// DownloadName returns the file name offered to clients downloading one of a
// request's outputs: the uploaded song name with a "-karaoke" suffix and the
// output's extension.
func DownloadName(req *queue.Request, outputPath string) string {
	ext := strings.ToLower(filepath.Ext(outputPath))
	stem := ""
	if req != nil {
		name := req.OriginalName
		stem = strings.TrimSuffix(name, filepath.Ext(name))
	}
	token := textutil.SanitizeToken(stem)
	if token == "unknown" && req != nil {
		token = ShortID(req.ID)
	}
	return token + "-karaoke" + ext
}

// ShortID returns the first eight characters of a request ID for display.
func ShortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
