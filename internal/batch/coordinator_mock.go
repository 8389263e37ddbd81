package batch

import (
	"context"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
)

// MOCK SUBMITTER

type mockSubmitter struct {
	submitBatchFn func(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error)
	calls         int
}

func (m *mockSubmitter) SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error) {
	m.calls++
	return m.submitBatchFn(ctx, req)
}
