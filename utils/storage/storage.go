// Package storage persists rendered certificate files and resolves their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Storage saves objects under a slash separated key.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	// Delete removes the object; a missing object is not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Options selects and configures a Storage backend.
type Options struct {
	Driver        string // local or gcs
	Root          string
	PublicBaseURL string
	Bucket        string
	CDNDomain     string
}

// New returns the backend named by opts.Driver.
func New(ctx context.Context, opts Options) (Storage, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "local":
		return NewLocal(opts.Root, opts.PublicBaseURL+"/files"), nil
	case "gcs":
		return NewGCS(ctx, opts.Bucket, opts.CDNDomain)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
