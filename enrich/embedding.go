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


package enrich

import (
	"context"
	"strconv"
	"strings"

	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/fetch"
	"github.com/poiesic/keepsake/vectorindex"
)

const (
	// embeddingBudget caps the size of the text blob sent to the embedder.
	embeddingBudget = 8000

	// minDescriptionLength is the shortest vision text worth its own
	// labeled section in the embedding blob.
	minDescriptionLength = 20
)

// Reembed rebuilds the vector index record for an item from its stored
// fields. Used to repopulate the in-memory index after a restart.
func (w *Worker) Reembed(ctx context.Context, itemID core.ID) error {
	return w.embed(ctx, itemID)
}

// embed builds the item's embedding text, embeds it, and records the vector.
// An empty blob (nothing worth embedding) is skipped silently.
func (w *Worker) embed(ctx context.Context, itemID core.ID) error {
	detail, err := w.items.GetDetail(ctx, itemID)
	if err != nil {
		return err
	}

	blob := EmbeddingText(detail)
	if blob == "" {
		return nil
	}

	vector, err := w.adapter.EmbedText(ctx, blob)
	if err != nil {
		return err
	}

	vectorID := core.VectorIDForItem(itemID)
	record := vectorindex.Record{
		Id:     vectorID,
		ItemId: itemID,
		Vector: vector,
		Meta: map[string]string{
			"kind":  detail.Item.Kind.String(),
			"image": strconv.FormatBool(detail.PrimaryImage() != nil),
		},
	}
	if err := w.index.Upsert(record); err != nil {
		return err
	}

	return w.items.SetEmbedding(ctx, &core.Embedding{ItemId: itemID, VectorRef: vectorID})
}

// EmbeddingText assembles the labeled blob handed to the embedder.
// Sections appear in fixed precedence so the front of the blob survives
// truncation: type, title, summary, source host, primary text, OCR text.
// For image items a qualifying vision description gets its own label
// instead of the generic content one. Exported for the reembed tool, which
// must build the same blob the enrichment pipeline embeds.
func EmbeddingText(detail *core.ItemDetail) string {
	item := detail.Item
	content := detail.Content

	var sections []string
	add := func(label, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			sections = append(sections, label+": "+value)
		}
	}

	add("type", item.Kind.String())
	add("title", item.Title)
	add("summary", item.Summary)
	if item.SourceURL != "" {
		add("source", fetch.SourceHost(item.SourceURL))
	}

	primaryLabel := "content"
	if item.Kind == core.KindText {
		primaryLabel = "note"
	}
	if detail.PrimaryImage() != nil && isDescriptiveText(content.Text) {
		primaryLabel = "image description"
	}
	add(primaryLabel, content.Text)
	add("ocr", content.OCRText)

	return truncate(strings.Join(sections, "\n"), embeddingBudget)
}

// isDescriptiveText reports whether text looks like a real vision
// description rather than a placeholder or a bare URL.
func isDescriptiveText(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minDescriptionLength {
		return false
	}
	if strings.HasPrefix(text, "image file:") {
		return false
	}
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return false
	}
	return true
}
