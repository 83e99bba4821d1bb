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

	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

// DefaultBatchSize is the number of items handed to fn per batch when no
// batch size is configured.
const DefaultBatchSize = 100

// ItemIterator walks every captured item in batches.
type ItemIterator struct {
	items     storage.ItemStore
	batchSize int
}

// NewItemIterator creates an iterator over all items in the store.
func NewItemIterator(items storage.ItemStore, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ItemIterator{
		items:     items,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of items. Iteration stops on the first
// error from fn; context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.Item) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	items, err := it.items.ListItems(ctx, nil, 0)
	if err != nil {
		return err
	}

	for i := 0; i < len(items); i += it.batchSize {
		end := i + it.batchSize
		if end > len(items) {
			end = len(items)
		}

		if err := fn(items[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
