// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package storage provides the blob store used for large task artifacts
// (screenshots, HAR traces, element-tree markup) on top of any
// S3-compatible object storage (MinIO, AWS S3, etc.).
package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
)

// BlobStore stores and retrieves task artifacts by (bucket, object).
type BlobStore struct {
	client *minio.Client

	mu      sync.Mutex
	buckets map[string]bool
}

// NewBlobStore creates a blob store client.
func NewBlobStore(cfg config.BlobStoreConfig) (*BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessage("failed to create blob store client").WithError(err)
	}
	return &BlobStore{client: client, buckets: make(map[string]bool)}, nil
}

func (s *BlobStore) ensureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	known := s.buckets[bucket]
	s.mu.Unlock()
	if known {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessagef("failed to check bucket %q", bucket).WithError(err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.NewError().WithCode(errors.CodeBlobStoreError).
				WithMessagef("failed to create bucket %q", bucket).WithError(err)
		}
	}
	s.mu.Lock()
	s.buckets[bucket] = true
	s.mu.Unlock()
	return nil
}

// Put uploads one object.
func (s *BlobStore) Put(ctx context.Context, bucket, object string, data []byte, contentType string, metadata map[string]string) error {
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessagef("failed to upload %s/%s", bucket, object).WithError(err)
	}
	return nil
}

// Get downloads one object and its content type.
func (s *BlobStore) Get(ctx context.Context, bucket, object string) ([]byte, string, error) {
	reader, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessagef("failed to get %s/%s", bucket, object).WithError(err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessagef("failed to read %s/%s", bucket, object).WithError(err)
	}
	stat, err := reader.Stat()
	contentType := "application/octet-stream"
	if err == nil && stat.ContentType != "" {
		contentType = stat.ContentType
	}
	return data, contentType, nil
}

// Remove deletes one object. Removing a missing object is not an error.
func (s *BlobStore) Remove(ctx context.Context, bucket, object string) error {
	err := s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBlobStoreError).
			WithMessagef("failed to delete %s/%s", bucket, object).WithError(err)
	}
	return nil
}

// Exists reports whether an object is present.
func (s *BlobStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
