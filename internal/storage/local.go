// Package storage keeps receipt images on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// LocalStore resolves storage locators (slash-separated, relative) under a root directory.
type LocalStore struct {
	root          string
	publicBaseURL string
	logger        *slog.Logger
}

// NewLocalStore creates root when it is missing. When publicBaseURL is set,
// display URLs are built from it; otherwise they are file:// URLs.
func NewLocalStore(root, publicBaseURL string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, common.WrapError(err, "resolve image root")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, common.WrapError(err, "create image root")
	}
	return &LocalStore{
		root:          abs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Root is the absolute directory images live under.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) resolve(locator string) (string, error) {
	rel := filepath.FromSlash(path.Clean(locator))
	if locator == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: bad storage locator %q", common.ErrInvalidInput, locator)
	}
	return filepath.Join(s.root, rel), nil
}

// Read returns the bytes stored at locator.
func (s *LocalStore) Read(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("image %q: %w", locator, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read image %q: %w", locator, err)
	}
	return data, nil
}

// Exists reports whether a regular file is stored at locator.
func (s *LocalStore) Exists(locator string) bool {
	p, err := s.resolve(locator)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// DisplayURL is false when the image file is gone.
func (s *LocalStore) DisplayURL(img entity.Image) (string, bool) {
	if !s.Exists(img.StorageLocator) {
		return "", false
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + strings.TrimLeft(img.StorageLocator, "/"), true
	}
	p, _ := s.resolve(img.StorageLocator)
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String(), true
}

// Save writes r to locator, replacing any previous file atomically.
func (s *LocalStore) Save(ctx context.Context, locator string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := s.resolve(locator)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, common.WrapError(err, "create image dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return 0, common.WrapError(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write image %q: %w", locator, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return 0, fmt.Errorf("store image %q: %w", locator, err)
	}
	s.logger.Debug("storage.saved", "locator", locator, "bytes", n)
	return n, nil
}
