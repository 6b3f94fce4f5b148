// Package storage archives raw uploaded files to S3-compatible object
// storage, keyed by session id. Retention is best-effort; the analysis
// pipeline never depends on it.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/chartmuseum/storage"

	"github.com/pias-analytics/pias-backend/internal/config"
)

// ObjectInfo represents metadata for one archived object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// UploadArchive captures the operations the service needs for upload
// retention.
type UploadArchive interface {
	Put(ctx context.Context, sessionID, filename string, data []byte) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// S3Archive implements UploadArchive on any S3-compatible service.
type S3Archive struct {
	backend storage.Backend
	prefix  string
}

// NewS3Archive builds an archive client from config. Credentials and bucket
// are required when archiving is enabled.
func NewS3Archive(cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + strings.TrimPrefix(endpoint, "//")
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		"",
		region,
		endpoint,
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(endpoint != ""),
		},
	)

	return &S3Archive{backend: backend, prefix: cfg.Prefix}, nil
}

// Put stores the raw upload bytes and returns the object key.
func (a *S3Archive) Put(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	key := path.Join(a.prefix, sessionID, path.Base(filename))
	if err := a.backend.PutObject(key, data); err != nil {
		return "", fmt.Errorf("archive upload failed: %w", err)
	}
	return key, nil
}

// List lists archived objects under the given prefix.
func (a *S3Archive) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects, err := a.backend.ListObjects(path.Join(a.prefix, prefix))
	if err != nil {
		return nil, fmt.Errorf("archive list failed: %w", err)
	}
	results := make([]ObjectInfo, 0, len(objects))
	for _, object := range objects {
		results = append(results, ObjectInfo{
			Key:  object.Path,
			Size: int64(len(object.Content)),
		})
	}
	return results, nil
}

var _ UploadArchive = (*S3Archive)(nil)

func awsBool(v bool) *bool {
	return &v
}
