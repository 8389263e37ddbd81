package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/retrieval"
	"github.com/wb-go/wbf/retry"
)

// MOCK CLIENT

type mockClient struct {
	resizeFn   func(ctx context.Context, asset model.ImageAsset, spec model.ResizeSpec) (*model.ProcessingResult, error)
	advancedFn func(ctx context.Context, req *model.ProcessingRequest) (*model.ProcessingResult, error)
	batchFn    func(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error)
	healthFn   func(ctx context.Context) (*model.HealthReport, error)
	calls      int
}

func (m *mockClient) SubmitResize(ctx context.Context, asset model.ImageAsset, spec model.ResizeSpec) (*model.ProcessingResult, error) {
	m.calls++
	return m.resizeFn(ctx, asset, spec)
}

func (m *mockClient) SubmitAdvanced(ctx context.Context, req *model.ProcessingRequest) (*model.ProcessingResult, error) {
	m.calls++
	return m.advancedFn(ctx, req)
}

func (m *mockClient) SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error) {
	m.calls++
	return m.batchFn(ctx, req)
}

func (m *mockClient) FetchHealth(ctx context.Context) (*model.HealthReport, error) {
	m.calls++
	return m.healthFn(ctx)
}

// MOCK RESPOSITORY

type mockRepo struct {
	saveFn func(ctx context.Context, rec *model.HistoryRecord) error
	getFn  func(ctx context.Context, id string) (*model.HistoryRecord, error)
	listFn func(ctx context.Context, req *model.ListRequest) ([]model.HistoryRecord, error)
}

func (m *mockRepo) Save(ctx context.Context, rec *model.HistoryRecord) error {
	return m.saveFn(ctx, rec)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.HistoryRecord, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context, req *model.ListRequest) ([]model.HistoryRecord, error) {
	return m.listFn(ctx, req)
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK ARCHIVE

type mockArchive struct {
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockArchive) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

// MOCK FETCHER

type mockFetcher struct {
	saveFn func(ctx context.Context, locator string) (string, *retrieval.File, error)
}

func (m *mockFetcher) Save(ctx context.Context, locator string) (string, *retrieval.File, error) {
	return m.saveFn(ctx, locator)
}
