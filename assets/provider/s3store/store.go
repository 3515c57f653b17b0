// Package s3store implements the assets.ObjectStore interface on any
// S3-compatible backend.
package s3store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/assets"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the client options.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL is the externally reachable root under which objects are
	// served, e.g. "https://cdn.example.com/storefront". Object names are
	// appended verbatim.
	PublicBaseURL string
}

// Store is an assets.ObjectStore backed by an S3-compatible bucket.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// Verify interface compliance
var _ assets.ObjectStore = (*Store)(nil)

// New creates a Store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create object store client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to check bucket").
			WithMetadata(map[string]any{"bucket": cfg.Bucket})
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create bucket").
				WithMetadata(map[string]any{"bucket": cfg.Bucket})
		}
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put writes payload under name and returns the resolvable reference. The
// object name doubles as the external ID.
func (s *Store) Put(ctx context.Context, payload io.Reader, size int64, name, contentType string) (assets.Reference, error) {
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}

	info, err := s.client.PutObject(ctx, s.bucket, name, payload, size, opts)
	if err != nil {
		return assets.Reference{}, errors.Wrap(err, assets.ErrUploadFailed.Category, "failed to upload object").
			WithTextCode(assets.ErrUploadFailed.TextCode).
			WithMetadata(map[string]any{"bucket": s.bucket, "name": name})
	}

	return assets.Reference{
		URL:        s.PublicURL(info.Key),
		ExternalID: info.Key,
		Origin:     assets.OriginUploaded,
	}, nil
}

// Delete removes the object. A missing object is treated as success so
// cleanup stays idempotent.
func (s *Store) Delete(ctx context.Context, externalID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, externalID, minio.RemoveObjectOptions{})
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return nil
	}

	return errors.Wrap(err, assets.ErrDeleteFailed.Category, "failed to delete object").
		WithTextCode(assets.ErrDeleteFailed.TextCode).
		WithMetadata(map[string]any{"bucket": s.bucket, "external_id": externalID})
}

// PublicURL derives the externally reachable URL for an object name.
func (s *Store) PublicURL(name string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, name)
}
