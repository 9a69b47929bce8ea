// Package miniostore implements the object store port over any
// S3-compatible server reachable with the MinIO client, for local runs.
package miniostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/example/mqmon/internal/core/storage"
	"github.com/example/mqmon/internal/ports/secondary"
)

// Config holds the connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Store implements secondary.ObjectStore.
type Store struct {
	client *minio.Client
}

// New connects to the server described by cfg.
func New(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required when the minio store is selected")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{client: client}, nil
}

// List returns every object URI under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	u, err := storage.ParseURI(prefix)
	if err != nil {
		return nil, err
	}

	var uris []string
	for obj := range s.client.ListObjects(ctx, u.Bucket, minio.ListObjectsOptions{Prefix: u.Key, Recursive: true}) {
		if obj.Err != nil {
			return nil, translate("list objects", prefix, obj.Err)
		}
		uris = append(uris, storage.URI{Bucket: u.Bucket, Key: obj.Key}.String())
	}
	sort.Strings(uris)
	return uris, nil
}

// Read returns an object's content.
func (s *Store) Read(ctx context.Context, uri string) ([]byte, error) {
	u, err := storage.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, u.Bucket, u.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate("get object", uri, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate("get object", uri, err)
	}
	return data, nil
}

// Put writes body as a single object, creating the bucket if needed.
func (s *Store) Put(ctx context.Context, uri string, body []byte, contentType string) error {
	u, err := storage.ParseURI(uri)
	if err != nil {
		return err
	}

	exists, err := s.client.BucketExists(ctx, u.Bucket)
	if err != nil {
		return translate("check bucket", u.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, u.Bucket, minio.MakeBucketOptions{}); err != nil {
			return translate("create bucket", u.Bucket, err)
		}
	}

	_, err = s.client.PutObject(ctx, u.Bucket, u.Key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	return translate("put object", uri, err)
}

func translate(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%s %s: %w: %w", op, subject, secondary.ErrNotFound, err)
	case "SlowDown", "SlowDownRead", "SlowDownWrite", "ServiceUnavailable", "RequestTimeout":
		return fmt.Errorf("%s %s: %w: %w", op, subject, secondary.ErrTransient, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, subject, err)
}

// Ensure Store implements the interface
var _ secondary.ObjectStore = (*Store)(nil)
