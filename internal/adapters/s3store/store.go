// Package s3store implements the object store port over Amazon S3.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/example/mqmon/internal/adapters/awsclient"
	"github.com/example/mqmon/internal/core/storage"
	"github.com/example/mqmon/internal/ports/secondary"
)

// API is the subset of the S3 client used by the store.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements secondary.ObjectStore.
type Store struct {
	client API
}

// New creates a store from an AWS config.
func New(cfg aws.Config) *Store {
	return NewWithClient(s3.NewFromConfig(cfg))
}

// NewWithClient creates a store over an existing client.
func NewWithClient(client API) *Store {
	return &Store{client: client}
}

// List returns every object URI under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	u, err := storage.ParseURI(prefix)
	if err != nil {
		return nil, err
	}

	var uris []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.Bucket),
		Prefix: aws.String(u.Key),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awsclient.Translate("list objects", prefix, err)
		}
		for _, obj := range page.Contents {
			uris = append(uris, storage.URI{Bucket: u.Bucket, Key: aws.ToString(obj.Key)}.String())
		}
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

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		return nil, awsclient.Translate("get object", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", uri, err)
	}
	return data, nil
}

// Put writes body as a single object.
func (s *Store) Put(ctx context.Context, uri string, body []byte, contentType string) error {
	u, err := storage.ParseURI(uri)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(u.Key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	return awsclient.Translate("put object", uri, err)
}

// Ensure Store implements the interface
var _ secondary.ObjectStore = (*Store)(nil)
