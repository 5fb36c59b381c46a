package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
)

// GCSStore is an alternative BlobStore backed by a Google Cloud Storage
// bucket, for deployments where attachments should outlive the local disk.
// Credentials come from the environment (application default credentials).
type GCSStore struct {
	bucket *gcs.BucketHandle
}

// NewGCSStore dials GCS. Like the filesystem store, failure to establish
// the client leaves the store unavailable instead of failing the caller.
func NewGCSStore(ctx context.Context, bucketName string) *GCSStore {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucketName).Msg("blob store unavailable")
		return &GCSStore{}
	}
	return &GCSStore{bucket: client.Bucket(bucketName)}
}

func (s *GCSStore) Available() bool {
	return s.bucket != nil
}

func (s *GCSStore) Put(ctx context.Context, id string, r io.Reader) error {
	if s.bucket == nil {
		return ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return err
	}

	w := s.bucket.Object(id).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put blob %q: %w", id, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.bucket == nil {
		return nil, ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	r, err := s.bucket.Object(id).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("blob %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get blob %q: %w", id, err)
	}
	return r, nil
}

func (s *GCSStore) Delete(ctx context.Context, id string) error {
	if s.bucket == nil {
		return ErrUnavailable
	}
	if err := validateID(id); err != nil {
		return err
	}

	if err := s.bucket.Object(id).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete blob %q: %w", id, err)
	}
	return nil
}
