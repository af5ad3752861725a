// Package storage resolves payment-slip documents kept in S3-compatible storage.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hooknotify_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// BilletURLTTL bounds how long the gateway may take to fetch an attached slip.
	BilletURLTTL = 24 * time.Hour

	billetFolder = "invoices"
)

// MinIOBilletStore looks up invoice payment slips by invoice id.
type MinIOBilletStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOBilletStore creates a store over the configured billets bucket.
func NewMinIOBilletStore(cfg config.StorageConfig) (*MinIOBilletStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOBilletStore{client: client, bucket: cfg.GetMinIOBucketBillets()}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOBilletStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// BilletURL returns a presigned download URL for the invoice's slip.
// found is false when no slip was uploaded for the invoice.
func (s *MinIOBilletStore) BilletURL(ctx context.Context, invoiceID int64) (string, bool, error) {
	key := BilletKey(invoiceID)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to stat billet %s: %w", key, err)
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", "application/pdf")

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, BilletURLTTL, reqParams)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate presigned billet URL: %w", err)
	}
	return presigned.String(), true, nil
}

// BilletKey is the object key a slip for invoiceID is stored under.
func BilletKey(invoiceID int64) string {
	return billetFolder + "/" + strconv.FormatInt(invoiceID, 10) + ".pdf"
}
