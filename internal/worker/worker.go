// Package worker consumes result events from the queue and hands them to a handler
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

var ErrMalformedEvent = errors.New("malformed result event")

// EventHandler - контракт для того, кто обрабатывает событие о готовом результате
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *model.ResultEvent) error
}

// Committer - часть консьюмера, нужная воркеру
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

// CommitFunc adapts a plain function (usually a consumer method value) to Committer
type CommitFunc func(ctx context.Context, msg kafkago.Message) error

func (f CommitFunc) Commit(ctx context.Context, msg kafkago.Message) error {
	return f(ctx, msg)
}

type Worker struct {
	handler  EventHandler
	queue    <-chan kafkago.Message
	consumer Committer
}

func NewWorkerInstance(h EventHandler, q <-chan kafkago.Message, cons Committer) *Worker {
	return &Worker{handler: h, queue: q, consumer: cons}
}

// StartWorker reads the queue until ctx is done or the channel is closed.
// A message is committed once handled; a handler failure leaves it uncommitted.
func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				zlog.Logger.Info().Msg("Queue channel closed, stopping worker...")
				return
			}
			if err := w.process(ctx, msg); err != nil && !errors.Is(err, ErrMalformedEvent) {
				zlog.Logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Result event failed")
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().Err(err).Msg("Failed to commit queue-message")
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, msg kafkago.Message) error {
	ev, err := decodeEvent(msg)
	if err != nil {
		// битое сообщение повторно читать бессмысленно - коммитим и идем дальше
		zlog.Logger.Warn().Err(err).Str("key", string(msg.Key)).Msg("Skipping malformed result event")
		return err
	}

	if err := w.handler.HandleEvent(ctx, ev); err != nil {
		return fmt.Errorf("handle event %q: %w", ev.RequestID, err)
	}
	return nil
}

func decodeEvent(msg kafkago.Message) (*model.ResultEvent, error) {
	var ev model.ResultEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.RequestID == "" {
		ev.RequestID = string(msg.Key)
	}
	if ev.URL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrMalformedEvent)
	}
	return &ev, nil
}
