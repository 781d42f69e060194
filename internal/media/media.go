// Package media turns a product's stored file_path into a URL clients can
// fetch. Nothing here reads or writes file contents.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/diewo77/shop-api/internal/config"
	"github.com/diewo77/shop-api/internal/models"
)

// Resolver maps a stored file path to a public URL.
type Resolver interface {
	URL(ctx context.Context, filePath string) (string, error)
}

// StaticResolver serves files below a fixed base URL.
type StaticResolver struct {
	BaseURL string
}

func (r StaticResolver) URL(_ context.Context, filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(filePath, "/"), nil
}

// PresignResolver hands out time-limited GET URLs for objects in an S3
// compatible bucket.
type PresignResolver struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewPresignResolver builds a resolver from cfg. The region must be set so
// presigning does not need to look up the bucket location.
func NewPresignResolver(cfg config.MediaConfig) (*PresignResolver, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("media: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("media: create client: %w", err)
	}
	return &PresignResolver{client: client, bucket: cfg.Bucket, ttl: cfg.URLTTL}, nil
}

func (r *PresignResolver) URL(ctx context.Context, filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}
	u, err := r.client.PresignedGetObject(ctx, r.bucket, strings.TrimLeft(filePath, "/"), r.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("media: presign %s: %w", filePath, err)
	}
	return u.String(), nil
}

// NewResolver picks the presigning resolver when an S3 endpoint is
// configured and the static one otherwise.
func NewResolver(cfg config.MediaConfig) (Resolver, error) {
	if cfg.Endpoint == "" {
		return StaticResolver{BaseURL: cfg.BaseURL}, nil
	}
	return NewPresignResolver(cfg)
}

// Fill sets ContentURL on each product that has a file path.
func Fill(ctx context.Context, r Resolver, products ...*models.Product) error {
	for _, p := range products {
		if p == nil || p.FilePath == nil {
			continue
		}
		u, err := r.URL(ctx, *p.FilePath)
		if err != nil {
			return err
		}
		p.ContentURL = u
	}
	return nil
}
