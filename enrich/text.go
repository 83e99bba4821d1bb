package enrich

import (
	"context"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
)

// processText summarizes and classifies a text item. The two calls are
// independent and run concurrently; neither can fail, because the adapter
// degrades them to deterministic fallbacks.
func (w *Worker) processText(ctx context.Context, detail *core.ItemDetail) error {
	text := detail.Content.Text
	if text == "" {
		return nil
	}

	summaryCh := make(chan string, 1)
	classCh := make(chan ai.Classification, 1)
	go func() {
		summaryCh <- w.adapter.Summarize(ctx, text)
	}()
	go func() {
		classCh <- w.adapter.Classify(ctx, text)
	}()
	summary := <-summaryCh
	classification := <-classCh

	patch := core.ItemPatch{Summary: &summary}
	if classification.Confidence >= classificationFloor {
		patch.Kind = &classification.Kind
	}
	_, err := w.items.UpdateItem(ctx, detail.Item.Id, patch)
	return err
}
