package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tunely/internal/config"
	"tunely/internal/fileutil"
	"tunely/internal/logging"
	"tunely/internal/queue"
	"tunely/internal/services"
	"tunely/internal/textutil"
)

// RequestCreator persists new requests.
type RequestCreator interface {
	Create(ctx context.Context, req *queue.Request) (*queue.Request, error)
}

// Intake stores uploaded audio and creates RECEIVED requests for it.
type Intake struct {
	store     RequestCreator
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// Upload is one submitted song.
type Upload struct {
	// FileName is the client-supplied name; it is sanitized before use.
	FileName string
	Body     io.Reader
	// Background optionally names a video already present in the upload
	// directory.
	Background string
}

// NewIntake builds an Intake writing under cfg.Paths.UploadDir.
func NewIntake(cfg *config.Config, store RequestCreator, logger *slog.Logger) *Intake {
	return &Intake{
		store:     store,
		uploadDir: cfg.Paths.UploadDir,
		maxBytes:  cfg.MaxUploadBytes(),
		logger:    logging.NewComponentLogger(logger, "intake"),
	}
}

// Submit validates the upload, stores it as <upload_dir>/<id>_<name> and
// creates the request. Validation failures wrap services.ErrInputInvalid.
func (in *Intake) Submit(ctx context.Context, upload Upload) (*queue.Request, error) {
	name := textutil.SecureFileName(upload.FileName)
	if name == "" {
		return nil, invalidUpload("file name is empty after sanitizing", nil)
	}
	if !textutil.AllowedAudioExtension(name) {
		return nil, invalidUpload(fmt.Sprintf("unsupported file type %q (allowed: %s)",
			filepath.Ext(name), strings.Join(textutil.AllowedAudioExtensions, ", ")), nil)
	}
	background, err := in.resolveBackground(upload.Background)
	if err != nil {
		return nil, err
	}

	id := queue.NewRequestID()
	target := filepath.Join(in.uploadDir, id+"_"+name)
	written, err := fileutil.SaveStream(target, upload.Body, in.maxBytes)
	if err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			return nil, invalidUpload(fmt.Sprintf("file exceeds %d bytes", in.maxBytes), err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "received", "store upload", "write upload", err)
	}
	if written == 0 {
		_ = os.Remove(target)
		return nil, invalidUpload("file is empty", nil)
	}

	req, err := in.store.Create(ctx, &queue.Request{
		ID:             id,
		OriginalName:   upload.FileName,
		BackgroundPath: background,
		Artifacts:      queue.Artifacts{InputAudio: target},
	})
	if err != nil {
		_ = os.Remove(target)
		return nil, fmt.Errorf("create request: %w", err)
	}
	in.logger.Info("upload accepted",
		logging.String(logging.FieldRequestID, req.ID),
		logging.String(logging.FieldEventType, "request_received"),
		logging.String("file", name),
		logging.Int64("bytes", written),
	)
	return req, nil
}

func (in *Intake) resolveBackground(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	name := textutil.SecureFileName(value)
	if name == "" || name != filepath.Base(value) {
		return "", invalidUpload(fmt.Sprintf("background %q must be a plain file name in the upload directory", value), nil)
	}
	path := filepath.Join(in.uploadDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", invalidUpload(fmt.Sprintf("background %q not found in the upload directory", value), err)
	}
	return path, nil
}

func invalidUpload(message string, err error) error {
	return services.Wrap(services.ErrInputInvalid, "received", "validate upload", message, err)
}
