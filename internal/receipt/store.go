package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/diviso/diviso/internal/apperr"
)

// ObjectStore reads uploaded receipt images.
type ObjectStore interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// GCSStore reads receipts from a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore connects to bucket. Empty credentialsJSON uses application
// default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, apperr.NotFound("receipt not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt %s: %w", path, err)
	}
	return r, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// DirStore reads receipts from a local directory.
type DirStore struct {
	root string
}

// NewDirStore serves files under root.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	if !filepath.IsLocal(path) {
		return nil, apperr.InvalidArgument("invalid receipt path")
	}
	f, err := os.Open(filepath.Join(s.root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.NotFound("receipt not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt %s: %w", path, err)
	}
	return f, nil
}
