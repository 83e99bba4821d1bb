// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package enrich turns freshly captured items into searchable ones. The
// Worker is the queue's job handler: it fetches external content, runs the
// AI steps for the item's kind, and writes results back through the item
// store. Every exit path leaves the item in a stable status; an item is
// never left in the processing state.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/fetch"
	"github.com/poiesic/keepsake/ocr"
	"github.com/poiesic/keepsake/queue"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/vectorindex"
)

// classificationFloor is the minimum confidence at which a classifier result
// overrides the item's captured kind.
const classificationFloor = 0.5

// Worker enriches captured items. It implements the queue.Handler contract
// via Handle and the dead-letter contract via HandleDeadLetter.
type Worker struct {
	items       storage.ItemStore
	adapter     *ai.Adapter
	index       vectorindex.Index
	pages       *fetch.PageFetcher
	blobs       fetch.BlobStore
	engine      ocr.Engine
	maxAttempts int
	logger      *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker) error

// WithPageFetcher sets the fetcher used for link items.
// Default is fetch.NewPageFetcher().
func WithPageFetcher(pages *fetch.PageFetcher) Option {
	return func(w *Worker) error {
		if pages != nil {
			w.pages = pages
		}
		return nil
	}
}

// WithBlobStore sets the store used to resolve file items' bytes.
// Without one, file items keep their placeholder text.
func WithBlobStore(blobs fetch.BlobStore) Option {
	return func(w *Worker) error {
		w.blobs = blobs
		return nil
	}
}

// WithOCR sets the OCR engine for image files. Default is ocr.Noop.
func WithOCR(engine ocr.Engine) Option {
	return func(w *Worker) error {
		if engine != nil {
			w.engine = engine
		}
		return nil
	}
}

// WithMaxAttempts tells the worker how many runs the queue allows per job,
// so it can apply final-attempt fallbacks. Must match the queue's setting.
// Default is 3.
func WithMaxAttempts(n int) Option {
	return func(w *Worker) error {
		if n > 0 {
			w.maxAttempts = n
		}
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorker creates an enrichment worker over the given collaborators.
func NewWorker(items storage.ItemStore, adapter *ai.Adapter, index vectorindex.Index, opts ...Option) (*Worker, error) {
	if items == nil {
		return nil, ErrItemStoreRequired
	}
	if adapter == nil {
		return nil, ErrAdapterRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	w := &Worker{
		items:       items,
		adapter:     adapter,
		index:       index,
		pages:       fetch.NewPageFetcher(),
		engine:      ocr.Noop{},
		maxAttempts: 3,
		logger:      slog.Default().With("component", "enrich"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Handle processes one enrichment job. A missing item is a permanent failure;
// everything else that fails resets the item to pending before the error is
// returned so the queue can retry it.
func (w *Worker) Handle(ctx context.Context, job *core.Job) error {
	detail, err := w.items.GetDetail(ctx, job.ItemId)
	if errors.Is(err, storage.ErrNotFound) {
		return queue.Permanent(fmt.Errorf("item %d: %w", job.ItemId, err))
	}
	if err != nil {
		return err
	}

	if err := w.setStatus(ctx, job.ItemId, core.StatusProcessing); err != nil {
		return err
	}

	switch detail.Item.Kind {
	case core.KindText:
		err = w.processText(ctx, detail)
	case core.KindLink:
		err = w.processLink(ctx, detail, job.Attempt+1 >= w.maxAttempts)
	case core.KindFile:
		err = w.processFile(ctx, detail)
	default:
		err = queue.Permanent(fmt.Errorf("%w: %d", core.ErrInvalidKind, detail.Item.Kind))
	}
	if err != nil {
		if statusErr := w.setStatus(ctx, job.ItemId, core.StatusPending); statusErr != nil {
			w.logger.Error("error resetting item status", "item", job.ItemId, "err", statusErr)
		}
		return err
	}

	// Best effort: a failed embedding still leaves a searchable item.
	if err := w.embed(ctx, job.ItemId); err != nil {
		w.logger.Warn("embedding skipped", "item", job.ItemId, "err", err)
	}

	return w.setStatus(ctx, job.ItemId, core.StatusProcessed)
}

// HandleDeadLetter marks the item failed once its job is dead. Wire this as
// the queue's dead-letter callback.
func (w *Worker) HandleDeadLetter(ctx context.Context, job *core.Job, jobErr error) {
	w.logger.Warn("enrichment abandoned", "item", job.ItemId, "attempts", job.Attempt, "err", jobErr)
	if err := w.setStatus(ctx, job.ItemId, core.StatusFailed); err != nil {
		w.logger.Error("error marking item failed", "item", job.ItemId, "err", err)
	}
}

func (w *Worker) setStatus(ctx context.Context, itemID core.ID, status core.ItemStatus) error {
	_, err := w.items.UpdateItem(ctx, itemID, core.ItemPatch{Status: &status})
	return err
}
