package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectExists is returned when a put would overwrite an existing key.
// Keys carry a random token, so a collision is a hard failure rather than a
// silent overwrite.
var ErrObjectExists = errors.New("object already exists")

// uploadCacheControl matches the browser cache policy set on every object.
const uploadCacheControl = "max-age=3600"

// ObjectStore is the object storage capability the pet workflow consumes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Bucket is an S3-compatible object store holding pet images.
type Bucket struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

var _ ObjectStore = (*Bucket)(nil)

// NewBucket connects to the object store endpoint.
func NewBucket(endpoint, accessKey, secretKey string, useSSL bool, bucket, publicBase string) (*Bucket, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}
	return &Bucket{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}, nil
}

// EnsureExists creates the bucket if it is not present yet.
func (b *Bucket) EnsureExists(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put writes bytes under key with no-overwrite semantics: an existing key is
// a hard failure. The stat-then-put pair is not atomic; the random token in
// every key keeps concurrent writers off the same key.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err == nil {
		return ErrObjectExists
	}
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: uploadCacheControl,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object under key.
func (b *Bucket) Remove(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// PublicURL derives the publicly fetchable URL for a stored key. It is a
// pure string operation on the configured base location; an empty key yields
// an empty URL.
func (b *Bucket) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return b.publicBase + "/" + b.bucket + "/" + key
}
