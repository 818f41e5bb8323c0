// Package storage resolves uploaded images to stable reference URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/article-threads-api/internal/config"
	"github.com/rs/zerolog"
)

var (
	// ErrNotImage is returned for uploads whose content type is not image/*
	ErrNotImage = errors.New("only image uploads allowed")
	// ErrTooLarge is returned for uploads above the configured size cap
	ErrTooLarge = errors.New("file too large")
)

// Provider stores an uploaded file and returns its public reference
type Provider interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// New selects the provider named by the configuration
func New(cfg *config.StorageConfig, log zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Provider(cfg, log)
	case "local", "":
		return NewLocalProvider(cfg.UploadDir, cfg.FileBaseURL, cfg.MaxUploadSize, log), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// checkUpload enforces the image-only and size policy
func checkUpload(file *multipart.FileHeader, maxSize int64) error {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return ErrNotImage
	}
	if maxSize > 0 && file.Size > maxSize {
		return ErrTooLarge
	}
	return nil
}

// objectName builds "<base>-<unixmillis>.<ext>" from the client file name.
// Directory components are stripped.
func objectName(filename string, now time.Time) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "upload"
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// ObjectKey is the storage key of an upload: "uploads/<base>-<unixmillis>.<ext>"
func ObjectKey(filename string, now time.Time) string {
	return "uploads/" + objectName(filename, now)
}
