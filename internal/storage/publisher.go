package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	miniosdk "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tunely/internal/config"
	"tunely/internal/logging"
)

const videoContentType = "video/mp4"

// Publisher uploads finished karaoke videos to an S3-compatible bucket.
type Publisher struct {
	client *miniosdk.Client
	bucket string
	region string
	prefix string
	logger *slog.Logger

	bucketMu    sync.Mutex
	bucketReady bool
}

// NewFromConfig builds a publisher from the [storage] section. It returns
// nil, nil when publication is disabled. No network call is made until the
// first upload.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	if cfg == nil || !cfg.Storage.Enabled {
		return nil, nil
	}
	s := cfg.Storage
	if s.Endpoint == "" || s.Bucket == "" {
		return nil, errors.New("storage: endpoint and bucket are required")
	}
	client, err := miniosdk.New(s.Endpoint, &miniosdk.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.UseSSL,
		Region: s.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &Publisher{
		client: client,
		bucket: s.Bucket,
		region: s.Region,
		prefix: s.Prefix,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// ObjectKey returns the object name a request's video is stored under.
func (p *Publisher) ObjectKey(requestID string) string {
	return ObjectKey(p.prefix, requestID)
}

// ObjectKey joins prefix and request id into "<prefix><id>.mp4".
func ObjectKey(prefix, requestID string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + requestID + ".mp4"
}

// Publish uploads videoPath and returns the object URL.
func (p *Publisher) Publish(ctx context.Context, requestID, videoPath string) (string, error) {
	if strings.TrimSpace(requestID) == "" {
		return "", errors.New("storage: request id is required")
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", fmt.Errorf("storage: stat video: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("storage: %s is not a video file", videoPath)
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := p.ObjectKey(requestID)
	upload, err := p.client.FPutObject(ctx, p.bucket, key, videoPath, miniosdk.PutObjectOptions{
		ContentType: videoContentType,
		UserMetadata: map[string]string{
			"request-id": requestID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	p.logger.Info("video uploaded",
		logging.String(logging.FieldRequestID, requestID),
		logging.String("bucket", p.bucket),
		logging.String("key", key),
		logging.Int64("size", upload.Size),
	)
	return p.objectURL(key), nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.bucketMu.Lock()
	defer p.bucketMu.Unlock()
	if p.bucketReady {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket: %w", err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, miniosdk.MakeBucketOptions{Region: p.region}); err != nil {
			return fmt.Errorf("storage: create bucket: %w", err)
		}
		p.logger.Info("bucket created", logging.String("bucket", p.bucket))
	}
	p.bucketReady = true
	return nil
}

func (p *Publisher) objectURL(key string) string {
	endpoint := p.client.EndpointURL()
	u := *endpoint
	u.Path = "/" + path.Join(p.bucket, key)
	return u.String()
}
