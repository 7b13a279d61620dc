package objectstore

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/melih/lighthouse-builder/internal/core/ports"
)

var _ ports.ArtifactStore = (*Store)(nil)

// Store uploads build artifacts to a bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the artifacts bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores each file under prefix/<path relative to baseDir>.
func (s *Store) Upload(ctx context.Context, prefix string, baseDir string, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key := objectKey(prefix, baseDir, p)
		_, err := s.client.FPutObject(ctx, s.bucket, key, p, minio.PutObjectOptions{
			ContentType: contentType(p),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", p, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// objectKey keys file by its path relative to baseDir. Files outside baseDir
// are keyed by their base name.
func objectKey(prefix, baseDir, file string) string {
	rel, err := filepath.Rel(baseDir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(file)
	}
	return path.Join(prefix, filepath.ToSlash(rel))
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".jar", ".war", ".ear":
		return "application/java-archive"
	case ".zip":
		return "application/zip"
	case ".pom", ".xml":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
