// Package retrieval fetches processed images by their locator and saves them locally
package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/mwlogger"
)

const DefaultFileName = "image.jpg"

// Downloader - контракт клиента, умеющего скачать результат по URL
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Retriever struct {
	dl  Downloader
	dir string
}

func New(dl Downloader, dir string) *Retriever {
	if dir == "" {
		dir = "."
	}
	return &Retriever{dl: dl, dir: dir}
}

// FileName takes the last path segment of the locator, or DefaultFileName when there is none.
func FileName(locator string) string {
	p := locator
	if u, err := url.Parse(strings.TrimSpace(locator)); err == nil {
		p = u.Path
	}

	name := path.Base(p)
	switch name {
	case "", ".", "/", "..":
		return DefaultFileName
	}
	return name
}

// Fetch downloads the result. Every failure is reported as model.ErrDownloadFailed.
func (r *Retriever) Fetch(ctx context.Context, locator string) (*File, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("%w: empty url", model.ErrDownloadFailed)
	}

	data, ct, err := r.dl.Download(ctx, locator)
	if err != nil {
		logger.Error().Err(err).Str("url", locator).Msg("Download failed")
		return nil, fmt.Errorf("%w: %w", model.ErrDownloadFailed, err)
	}

	return &File{Name: FileName(locator), ContentType: ct, Data: data}, nil
}

// Save fetches the result and writes it into the download directory, returning the file path.
func (r *Retriever) Save(ctx context.Context, locator string) (string, *File, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	f, err := r.Fetch(ctx, locator)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", r.dir).Msg("Failed to create download dir")
		return "", nil, fmt.Errorf("%w: %w", model.ErrDownloadFailed, err)
	}

	target := filepath.Join(r.dir, filepath.Base(f.Name))
	if err := os.WriteFile(target, f.Data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", target).Msg("Failed to write downloaded image")
		return "", nil, fmt.Errorf("%w: %w", model.ErrDownloadFailed, err)
	}

	logger.Info().Str("path", target).Str("size", model.FormatSize(int64(len(f.Data)))).Msg("Image downloaded")
	return target, f, nil
}
