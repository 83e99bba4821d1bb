package enrich

import (
	"context"
	"unicode/utf8"

	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/fetch"
	"github.com/poiesic/keepsake/queue"
)

// linkSummaryBudget caps how much page text is handed to the summarizer.
const linkSummaryBudget = 5000

// processLink fetches the linked page and persists its distilled metadata.
// Transient fetch failures propagate so the queue retries them; on the final
// attempt the item falls back to its raw URL and completes.
func (w *Worker) processLink(ctx context.Context, detail *core.ItemDetail, finalAttempt bool) error {
	item := detail.Item
	if item.SourceURL == "" {
		return queue.Permanent(ErrMissingSourceURL)
	}

	meta, err := w.pages.Fetch(ctx, item.SourceURL)
	if err != nil {
		if fetch.IsTransient(err) && !finalAttempt {
			return err
		}
		w.logger.Warn("link fetch failed, keeping raw url", "item", item.Id, "err", err)
		return w.applyLinkFallback(ctx, item)
	}

	summary := meta.Description
	if summary == "" && w.adapter.Available() && meta.Text != "" {
		summary = w.adapter.Summarize(ctx, truncate(meta.Text, linkSummaryBudget))
	}

	patch := core.ItemPatch{Summary: &summary}
	if meta.Title != "" {
		patch.Title = &meta.Title
	}
	if _, err := w.items.UpdateItem(ctx, item.Id, patch); err != nil {
		return err
	}

	if _, err := w.items.UpsertContent(ctx, item.Id, core.ContentPatch{
		Text: &meta.Text,
		HTML: &meta.AnchorHTML,
	}); err != nil {
		return err
	}

	if meta.ImageURL != "" && detail.PrimaryImage() == nil {
		if _, err := w.items.AddMedia(ctx, &core.Media{
			ItemId: item.Id,
			URL:    meta.ImageURL,
			Type:   core.MediaImage,
		}); err != nil {
			return err
		}
	}

	return nil
}

// applyLinkFallback makes an unfetchable link findable by its URL alone:
// the raw URL becomes the summary, and the title too unless the user set one.
func (w *Worker) applyLinkFallback(ctx context.Context, item *core.Item) error {
	patch := core.ItemPatch{Summary: &item.SourceURL}
	if item.Title == "" || item.Title == fetch.SourceHost(item.SourceURL) {
		patch.Title = &item.SourceURL
	}
	_, err := w.items.UpdateItem(ctx, item.Id, patch)
	return err
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
