package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore holds raw inspection capture packages.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error)
}

// MinioObjectStore is an ObjectStore on an S3-compatible bucket.
type MinioObjectStore struct {
	client *minio.Client
	bucket string
}

// NewMinioObjectStore connects and creates the bucket when it does not exist yet.
func NewMinioObjectStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", bucket, err)
		}
	}

	return &MinioObjectStore{client: client, bucket: bucket}, nil
}

// Put uploads the object and returns its URL.
func (s *MinioObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return strings.TrimSuffix(s.client.EndpointURL().String(), "/") + "/" + s.bucket + "/" + key, nil
}

func (s *MinioObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
}

// PackageKey is the object key of an inspection's capture package.
func PackageKey(inspectionID, filename string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, filename)
	if name == "" {
		name = "package"
	}
	return fmt.Sprintf("inspections/%s/%s-%s", inspectionID, time.Now().UTC().Format("20060102T150405"), name)
}
