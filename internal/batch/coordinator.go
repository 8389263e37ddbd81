// Package batch keeps the ordered queue of images for one batch resize and submits it as a single call
package batch

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/mwlogger"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Submitter is the part of the submission client the coordinator needs
type Submitter interface {
	SubmitBatch(ctx context.Context, req *model.BatchRequest) (*model.BatchResult, error)
}

// Item pairs an asset with its preview handle so they are added and removed together.
type Item struct {
	Asset   model.ImageAsset
	Preview string
}

type Coordinator struct {
	submitter Submitter
	limits    operation.Limits

	mu      sync.Mutex
	items   []Item
	results []model.ProcessingResult
	last    *model.BatchResult
	state   State
}

func NewCoordinator(s Submitter, lim operation.Limits) *Coordinator {
	return &Coordinator{submitter: s, limits: lim, state: StateIdle}
}

func (c *Coordinator) Append(items ...Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
}

// Remove drops the item at i; the rest keep their relative order.
func (c *Coordinator) Remove(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("%w: %d of %d", model.ErrIndexOutOfRange, i, len(c.items))
	}
	c.items = slices.Delete(c.items, i, i+1)
	return nil
}

func (c *Coordinator) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Results returns the successful results of the last successful submission.
func (c *Coordinator) Results() []model.ProcessingResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// Last returns the full outcome of the last successful submission, per-item failures included.
func (c *Coordinator) Last() *model.BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Submit sends the whole queue as one batch call. On any failure the previous
// results stay as they were.
func (c *Coordinator) Submit(ctx context.Context, fields operation.ResizeFields) (*model.BatchResult, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, model.ErrSubmissionInFlight
	}

	assets := make([]model.ImageAsset, 0, len(c.items))
	for _, it := range c.items {
		assets = append(assets, it.Asset)
	}

	// невалидный запрос до сети не доходит и состояние не трогает
	req, err := operation.NewBatchRequest(assets, fields, c.limits)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	logger := mwlogger.LoggerFromContext(ctx)
	res, err := c.submitter.SubmitBatch(ctx, req)

	if err == nil && res == nil {
		err = &model.ApplicationError{Capability: model.CapBatch, Message: model.DefaultMessages[model.CapBatch]}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateFailed
		logger.Error().Err(err).Int("images", len(assets)).Msg("Batch submission failed")
		return nil, err
	}

	c.state = StateSucceeded
	c.last = res
	c.results = res.Images()
	logger.Info().Int("images", len(assets)).Int("processed", len(c.results)).Msg("Batch submission succeeded")
	return res, nil
}
