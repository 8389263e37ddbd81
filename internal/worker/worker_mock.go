package worker

import (
	"context"
	"sync"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	kafkago "github.com/segmentio/kafka-go"
)

type mockHandler struct {
	handleFn func(ctx context.Context, ev *model.ResultEvent) error
}

func (m *mockHandler) HandleEvent(ctx context.Context, ev *model.ResultEvent) error {
	return m.handleFn(ctx, ev)
}

//----------------------------------

type mockCommitter struct {
	mu        sync.Mutex
	committed []string
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, string(msg.Key))
	return nil
}

func (m *mockCommitter) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.committed...)
}
