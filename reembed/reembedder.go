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


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/vectorindex"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of items embedded per provider call.
	BatchSize int

	// ReportInterval is how often to report progress, in items.
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates regenerating embeddings for every item.
type Reembedder struct {
	items     storage.ItemStore
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewReembedder creates a reembedder. progress receives human-readable
// progress output, typically os.Stderr.
func NewReembedder(items storage.ItemStore, adapter *ai.Adapter, index vectorindex.Index, config *Config, progress io.Writer) (*Reembedder, error) {
	if items == nil {
		return nil, ErrItemStoreRequired
	}
	if adapter == nil {
		return nil, ErrAdapterRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		items:     items,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(items, adapter, index, config.MaxRetries, config.RetryDelay),
		iterator:  NewItemIterator(items, config.BatchSize),
	}, nil
}

// Run embeds every item in the store, reporting progress as it goes.
func (r *Reembedder) Run(ctx context.Context) error {
	all, err := r.items.ListItems(ctx, nil, 0)
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}

	total := len(all)
	if total == 0 {
		fmt.Fprintf(r.progress, "No items found in database (0 items)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(batch []*core.Item) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return err
		}
		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d items in %v (%.1f items/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	return nil
}
