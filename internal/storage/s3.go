package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/article-threads-api/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// S3Provider stores uploads in an S3-compatible bucket
type S3Provider struct {
	client    *minio.Client
	bucket    string
	publicURL string
	maxSize   int64
	now       func() time.Time
	log       zerolog.Logger
}

// NewS3Provider creates a provider from the S3 settings
func NewS3Provider(cfg *config.StorageConfig, log zerolog.Logger) (*S3Provider, error) {
	s3 := cfg.S3
	if s3.Endpoint == "" || s3.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires endpoint and bucket")
	}

	client, err := minio.New(s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3.AccessKey, s3.SecretKey, ""),
		Secure: s3.UseSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	publicURL := s3.PublicURL
	if publicURL == "" {
		scheme := "http"
		if s3.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + s3.Endpoint + "/" + s3.Bucket
	}

	return &S3Provider{
		client:    client,
		bucket:    s3.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxSize:   cfg.MaxUploadSize,
		now:       time.Now,
		log:       log.With().Str("component", "storage").Str("provider", "s3").Logger(),
	}, nil
}

// Save uploads the file and returns its public URL
func (p *S3Provider) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := checkUpload(file, p.maxSize); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := ObjectKey(file.Filename, p.now())
	_, err = p.client.PutObject(ctx, p.bucket, key, src, file.Size, minio.PutObjectOptions{
		ContentType: file.Header.Get("Content-Type"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	p.log.Debug().Str("key", key).Int64("size", file.Size).Msg("Upload stored")
	return p.publicURL + "/" + key, nil
}
