package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type minioStorage struct {
	log    *logger.Logger
	client *minio.Client
	cfg    Config
}

func newMinIOStorage(ctx context.Context, log *logger.Logger, cfg Config) (Storage, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.MinIO.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	serviceLog := log.With("service", "MinIOStorage")
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.Bucket)
	return &minioStorage{log: serviceLog, client: client, cfg: cfg}, nil
}

func (s *minioStorage) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload file to MinIO: %w", err)
	}
	return Object{
		Key:         key,
		URL:         minioPublicURL(s.cfg, key),
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (s *minioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	obj, err := s.client.GetObject(ctx2, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open MinIO object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		cancel()
		return nil, fmt.Errorf("failed to stat MinIO object: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: obj, cancel: cancel}, nil
}

func (s *minioStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove file from MinIO: %w", err)
	}
	return nil
}

func minioPublicURL(cfg Config, key string) string {
	key = strings.TrimLeft(key, "/")
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, key)
	}
	scheme := "http"
	if cfg.MinIO.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, strings.TrimRight(cfg.MinIO.Endpoint, "/"), cfg.Bucket, key)
}
