package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/retrieval"
	"github.com/wb-go/wbf/retry"
)

// NoopPublisher - ЗАГЛУШКА, когда KAFKA_BROKER не задан
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, k []byte, v []byte) error {
	return nil
}

// NoopArchive - ЗАГЛУШКА, когда MINIO_ENDPOINT не задан
type NoopArchive struct{}

func (NoopArchive) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	return nil
}

// NoopFetcher - ЗАГЛУШКА, когда скачивание не подключено
type NoopFetcher struct{}

func (NoopFetcher) Save(ctx context.Context, locator string) (string, *retrieval.File, error) {
	return "", nil, model.ErrDownloadFailed
}
