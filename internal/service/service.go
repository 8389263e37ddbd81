// Package service provides business-logic for the orchestrator: validate, submit, then record what came back
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/client"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/mwlogger"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
	"github.com/UnendingLoop/ImageOrchestrator/internal/repository"
	"github.com/UnendingLoop/ImageOrchestrator/internal/retrieval"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

// Submitter - контракт клиента бэкенда
type Submitter interface {
	SubmitResize(ctx context.Context, asset model.ImageAsset, spec model.ResizeSpec) (*model.ProcessingResult, error)
	SubmitAdvanced(ctx context.Context, req *model.ProcessingRequest) (*model.ProcessingResult, error)
	SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error)
	FetchHealth(ctx context.Context) (*model.HealthReport, error)
}

// EventPublisher - контракт для работы с очередью
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ResultArchive - контракт для работы с хранилищем скачанных результатов
type ResultArchive interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// ResultFetcher - контракт скачивания результата на диск
type ResultFetcher interface {
	Save(ctx context.Context, locator string) (string, *retrieval.File, error)
}

type ImageService struct {
	client    Submitter
	repo      repository.HistoryRepo
	publisher EventPublisher
	archive   ResultArchive
	fetcher   ResultFetcher
	limits    operation.Limits
}

// NewImageService wires the optional integrations; nil publisher, archive and fetcher become no-ops,
// a nil repo turns history off.
func NewImageService(c Submitter, repo repository.HistoryRepo, pub EventPublisher, arch ResultArchive, f ResultFetcher, lim operation.Limits) *ImageService {
	if pub == nil {
		pub = NoopPublisher{}
	}
	if arch == nil {
		arch = NoopArchive{}
	}
	if f == nil {
		f = NoopFetcher{}
	}
	return &ImageService{client: c, repo: repo, publisher: pub, archive: arch, fetcher: f, limits: lim}
}

// Стратегия ретрая отправки в очередь
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  1.5,
}

// Элементы батча публикуются в одну попытку
var batchItemStrategy = retry.Strategy{
	Attempts: 1,
	Backoff:  1,
}

// Resize validates the single-resize form and submits it.
func (s *ImageService) Resize(ctx context.Context, asset model.ImageAsset, fields operation.ResizeFields) (*model.ProcessingResult, error) {
	req, err := operation.NewResizeRequest(asset, fields, s.limits)
	if err != nil {
		return nil, err
	}

	ctx, reqID := withRequestID(ctx)
	res, err := s.client.SubmitResize(ctx, req.Asset, *req.Operations.Resize)
	if err != nil {
		return nil, err
	}

	s.record(ctx, retryStrategy, reqID, model.CapResize, req.Operations.Kinds(), *res)
	return res, nil
}

// Process validates the enabled operations of the form and submits them in one call.
func (s *ImageService) Process(ctx context.Context, asset model.ImageAsset, form operation.Form) (*model.ProcessingResult, error) {
	req, err := operation.NewProcessingRequest(asset, form, s.limits)
	if err != nil {
		return nil, err
	}

	ctx, reqID := withRequestID(ctx)
	res, err := s.client.SubmitAdvanced(ctx, req)
	if err != nil {
		return nil, err
	}

	s.record(ctx, retryStrategy, reqID, model.CapAdvanced, req.Operations.Kinds(), *res)
	return res, nil
}

// SubmitBatch sends an already validated batch and records every successful item.
// It lets the service stand in for the client behind a batch.Coordinator.
func (s *ImageService) SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error) {
	ctx, reqID := withRequestID(ctx)
	res, err := s.client.SubmitBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	kinds := []model.OpKind{model.OpResize}
	for _, img := range res.Images() {
		if img.ProcessedAt.IsZero() {
			img.ProcessedAt = res.ProcessedAt
		}
		s.record(ctx, batchItemStrategy, reqID, model.CapBatch, kinds, img)
	}
	return res, nil
}

func (s *ImageService) Health(ctx context.Context) (*model.HealthReport, error) {
	return s.client.FetchHealth(ctx)
}

// Download saves the result locally and copies it into the archive. Archive failures are only logged.
func (s *ImageService) Download(ctx context.Context, locator string) (string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	path, f, err := s.fetcher.Save(ctx, locator)
	if err != nil {
		return "", err
	}

	key := uuid.NewString() + "/" + f.Name
	if err := s.archive.Put(ctx, key, int64(len(f.Data)), f.ContentType, bytes.NewReader(f.Data)); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to archive downloaded image")
	}
	return path, nil
}

func (s *ImageService) History(ctx context.Context, req *model.ListRequest) ([]model.HistoryRecord, error) {
	if s.repo == nil {
		return nil, model.ErrHistoryDisabled
	}
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := s.repo.List(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch history list from DB")
		return nil, model.ErrCommon500
	}
	return res, nil
}

func (s *ImageService) HistoryRecord(ctx context.Context, id string) (*model.HistoryRecord, error) {
	if s.repo == nil {
		return nil, model.ErrHistoryDisabled
	}
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	res, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, err // 404
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch history record %q from DB", id))
		return nil, model.ErrCommon500
	}
	return res, nil
}

// record stores and announces a successful result. The backend answer is already
// the outcome of the call, so failures here are logged and never returned.
func (s *ImageService) record(ctx context.Context, strategy retry.Strategy, reqID string, capab model.Capability, kinds []model.OpKind, res model.ProcessingResult) {
	logger := mwlogger.LoggerFromContext(ctx)

	processed := res.ProcessedAt
	if processed.IsZero() {
		processed = time.Now().UTC()
	}

	if s.repo != nil {
		rec := &model.HistoryRecord{
			ID:          uuid.New(),
			RequestID:   reqID,
			Capability:  capab,
			URL:         res.URL,
			FileSize:    res.FileSize,
			Operations:  model.KindsToSlice(kinds),
			ProcessedAt: processed,
		}
		if err := s.repo.Save(ctx, rec); err != nil {
			logger.Error().Err(err).Msg("Failed to save result in DB")
		}
	}

	ev, err := json.Marshal(model.ResultEvent{
		RequestID:   reqID,
		Capability:  capab,
		URL:         res.URL,
		FileSize:    res.FileSize,
		ProcessedAt: processed,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode result event")
		return
	}

	if err := s.publisher.SendWithRetry(ctx, strategy, []byte(reqID), ev); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish result of %q to events-queue", reqID))
	}
}

func withRequestID(ctx context.Context) (context.Context, string) {
	reqID := client.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
		ctx = client.ContextWithRequestID(ctx, reqID)
	}
	return ctx, reqID
}
