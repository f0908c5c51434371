package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

// NewGCS uses application default credentials.
func NewGCS(ctx context.Context, bucket, cdnDomain string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, cdnDomain: cdnDomain}, nil
}

func (g *GCS) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	key = cleanKey(key)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeForKey(key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return key, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	key = cleanKey(key)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, g.bucket, err)
	}
	return nil
}

func (g *GCS) URL(key string) string {
	if key == "" {
		return ""
	}
	return publicObjectURL(g.bucket, g.cdnDomain, key)
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func publicObjectURL(bucket, cdnDomain, key string) string {
	key = cleanKey(key)
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
