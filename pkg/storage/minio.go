// Package storage uploads product images to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/example/storefront/pkg/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type ImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewImageStore connects to MinIO and creates the bucket if it is missing.
func NewImageStore(ctx context.Context, cfg *config.MinioConfig, logger *zap.Logger) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
		logger.Info("Created image bucket", zap.String("bucket", cfg.Bucket))
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}, nil
}

// Upload stores the image under products/<productID>/ and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, productID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	object := ObjectName(productID, filename)

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Info("Uploaded product image",
		zap.String("product_id", productID),
		zap.String("object", object),
		zap.Int64("size", size))

	return s.publicURL + "/" + object, nil
}

// ObjectName keeps the uploaded file's extension and replaces the rest with a uuid.
func ObjectName(productID, filename string) string {
	return fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}
