package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Uploader writes listing images to object storage and returns the public
// URL the stored object is served from.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, r io.Reader) (string, error)
}

// GCSBucket stores objects in a Google Cloud Storage bucket. Objects are
// addressed by key and served from either the bucket's public URL or a CDN
// domain fronting it.
type GCSBucket struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewGCSBucket creates an uploader backed by the named bucket.
func NewGCSBucket(ctx context.Context, bucket, cdnDomain string) (*GCSBucket, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSBucket{
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}, nil
}

// Upload writes one object and returns its public URL.
func (b *GCSBucket) Upload(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	return b.PublicURL(key), nil
}

// PublicURL returns the URL the object is served from.
func (b *GCSBucket) PublicURL(key string) string {
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, key)
}
