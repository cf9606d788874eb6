package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"Bulletin_Board/internal/pkg"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore wraps a MinIO client for attachment payloads.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket, prefix: "uploads"}, nil
}

func (s *MinioStore) key(name string) string {
	return s.prefix + "/" + name
}

func (s *MinioStore) Save(ctx context.Context, r io.Reader, size int64, originalName string) (string, error) {
	if err := checkOriginalName(originalName); err != nil {
		return "", err
	}
	if size <= 0 {
		size = -1
	}
	name := NewStoredName()
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w: %w", name, pkg.ErrStorage, err)
	}
	return name, nil
}

// Open stats the object first; GetObject alone is lazy and would not report
// a missing key until the first read.
func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkStoredName(name); err != nil {
		return nil, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("get %s: %w", name, pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w: %w", name, pkg.ErrStorage, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %w", name, pkg.ErrStorage, err)
	}
	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove %s: %w: %w", name, pkg.ErrStorage, err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list: %w: %w", pkg.ErrStorage, obj.Err)
		}
		names = append(names, strings.TrimPrefix(obj.Key, s.prefix+"/"))
	}
	return names, nil
}
