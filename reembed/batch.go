package reembed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/enrich"
	"github.com/poiesic/keepsake/queue"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/vectorindex"
)

// BatchProcessor embeds batches of items and records the resulting vectors.
type BatchProcessor struct {
	items          storage.ItemStore
	adapter        *ai.Adapter
	index          vectorindex.Index
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a batch processor. maxRetries and retryBaseDelay
// govern retry of the embedding API call.
func NewBatchProcessor(items storage.ItemStore, adapter *ai.Adapter, index vectorindex.Index, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		items:          items,
		adapter:        adapter,
		index:          index,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds one batch of items and upserts their vector records.
// Items whose embedding text is empty are skipped. Vectors are normalized
// before storage so they compare cleanly under cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, batch []*core.Item) error {
	if len(batch) == 0 {
		return nil
	}

	details := make([]*core.ItemDetail, 0, len(batch))
	texts := make([]string, 0, len(batch))
	for _, item := range batch {
		detail, err := bp.items.GetDetail(ctx, item.Id)
		if err != nil {
			return fmt.Errorf("load item %d: %w", item.Id, err)
		}
		blob := enrich.EmbeddingText(detail)
		if blob == "" {
			continue
		}
		details = append(details, detail)
		texts = append(texts, blob)
	}
	if len(texts) == 0 {
		return nil
	}

	var embeddings [][]float32
	err := queue.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.adapter.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("embed batch after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	for i, detail := range details {
		itemID := detail.Item.Id
		vectorID := core.VectorIDForItem(itemID)
		record := vectorindex.Record{
			Id:     vectorID,
			ItemId: itemID,
			Vector: NormalizeVector(embeddings[i]),
			Meta: map[string]string{
				"kind":  detail.Item.Kind.String(),
				"image": strconv.FormatBool(detail.PrimaryImage() != nil),
			},
		}
		if err := bp.index.Upsert(record); err != nil {
			return fmt.Errorf("index item %d: %w", itemID, err)
		}
		if err := bp.items.SetEmbedding(ctx, &core.Embedding{ItemId: itemID, VectorRef: vectorID}); err != nil {
			return fmt.Errorf("record embedding for item %d: %w", itemID, err)
		}
	}
	return nil
}
