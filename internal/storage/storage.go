// Package storage connects the result archive
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/storage/miniostorage"
	"github.com/wb-go/wbf/zlog"
)

// NewResultArchive connects to MinIO, retrying until it succeeds, retries run out or ctx is done.
func NewResultArchive(ctx context.Context, opts miniostorage.Options, retries int, delay time.Duration) (*miniostorage.MinioResultStorage, error) {
	var err error
	for i := range retries {
		zlog.Logger.Info().Str("endpoint", opts.Endpoint).Msg("Connecting to result archive...")

		var client *miniostorage.MinioResultStorage
		client, err = miniostorage.NewMinioClient(ctx, opts)
		if err == nil {
			zlog.Logger.Info().Str("bucket", client.Bucket()).Msg("Successfully connected result archive!")
			return client, nil
		}
		zlog.Logger.Warn().Err(err).Int("try", i+1).Dur("wait", delay).Msg("Failed to init connection to result archive")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("connect to result archive: %w", err)
}
