package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveStore mirrors original avatar uploads into an object-storage bucket
// so the local uploads directory can be rebuilt after disk loss. Derived
// resized copies are not archived; the resize cache regenerates them.
type ArchiveStore struct {
	client *minio.Client
	bucket string
}

// NewArchiveStore creates a MinIO-backed archive and ensures the bucket
// exists.
func NewArchiveStore(endpoint, accessKey, secretKey, bucket string) (*ArchiveStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, fmt.Errorf("archive store: minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("archive store: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("archive store: make bucket: %w", err)
		}
	}

	return &ArchiveStore{client: client, bucket: bucket}, nil
}

// Archive stores a copy of an original upload under its relative path.
func (a *ArchiveStore) Archive(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("archive store: put %s: %w", key, err)
	}
	return nil
}

// Discard removes an archived original.
func (a *ArchiveStore) Discard(ctx context.Context, key string) error {
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}
