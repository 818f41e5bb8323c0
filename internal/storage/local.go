package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LocalProvider writes uploads to a directory served under /uploads
type LocalProvider struct {
	dir     string
	baseURL string
	maxSize int64
	now     func() time.Time
	log     zerolog.Logger
}

// NewLocalProvider creates a provider rooted at dir
func NewLocalProvider(dir, baseURL string, maxSize int64, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
		now:     time.Now,
		log:     log.With().Str("component", "storage").Str("provider", "local").Logger(),
	}
}

// Save copies the upload to disk and returns its public URL
func (p *LocalProvider) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := checkUpload(file, p.maxSize); err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name, dst, err := p.create(file.Filename)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	p.log.Debug().Str("file", name).Int64("size", file.Size).Msg("Upload stored")
	return p.baseURL + "/uploads/" + name, nil
}

// maxNameAttempts bounds how many later timestamps create tries after a
// name collision
const maxNameAttempts = 16

// create opens a new file for the upload without replacing an existing one.
// On collision the timestamp in the name moves forward a millisecond.
func (p *LocalProvider) create(filename string) (string, *os.File, error) {
	now := p.now()
	for i := 0; i < maxNameAttempts; i++ {
		name := objectName(filename, now.Add(time.Duration(i)*time.Millisecond))
		f, err := os.OpenFile(filepath.Join(p.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return name, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, fmt.Errorf("failed to create file: %w", err)
		}
	}
	return "", nil, fmt.Errorf("failed to create file: no free name for %q", filename)
}
