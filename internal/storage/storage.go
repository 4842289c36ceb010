// Package storage fetches stored CV binaries by reference.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/go-resty/resty/v2"
)

var ErrNotFound = errors.New("blob not found")

type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

func New(cfg *config.StorageConfig) (Fetcher, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "fs", "file":
		return NewFileFetcher(cfg.UploadDir), nil
	case "http", "https":
		return NewHTTPFetcher(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// FileFetcher reads blobs from a local upload directory.
type FileFetcher struct {
	root string
}

func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{root: root}
}

func (f *FileFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	// Clean against a rooted path so refs cannot escape the upload dir.
	path := filepath.Join(f.root, filepath.Clean("/"+ref))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}
	return data, nil
}

// HTTPFetcher downloads blobs from signed URLs or paths under a base URL.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(cfg *config.StorageConfig) *HTTPFetcher {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.BaseURL != "" {
		client.SetBaseURL(cfg.BaseURL)
	}
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	resp, err := f.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, fmt.Errorf("download blob: %w", err)
	}
	switch {
	case resp.StatusCode() == 404:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case resp.IsError():
		return nil, fmt.Errorf("download blob: unexpected status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
