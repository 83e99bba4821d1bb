package enrich

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/poiesic/keepsake/core"
)

// fileSummaryBudget caps how much OCR and vision text is handed to the summarizer.
const fileSummaryBudget = 2000

// processFile enriches a file item. Image files get OCR and a vision
// description, run concurrently with a settle-all join so one branch
// failing never discards the other's result. Non-image files keep a
// placeholder so they remain findable by title.
func (w *Worker) processFile(ctx context.Context, detail *core.ItemDetail) error {
	item := detail.Item
	image := detail.PrimaryImage()
	if image == nil {
		placeholder := placeholderText(item.Title)
		_, err := w.items.UpsertContent(ctx, item.Id, core.ContentPatch{Text: &placeholder})
		return err
	}

	if w.blobs == nil {
		return ErrNoBlobStore
	}
	data, err := w.blobs.Get(ctx, image.URL)
	if err != nil {
		// Without the bytes there is nothing to enrich; retry.
		return fmt.Errorf("read file item %d: %w", item.Id, err)
	}

	ocrText, visionText := w.describeImage(ctx, item.Id, imageMIMEType(image.URL), data)

	// vision > OCR > placeholder
	primary := visionText
	if primary == "" {
		primary = ocrText
	}
	if primary == "" {
		primary = placeholderText(item.Title)
	}

	if _, err := w.items.UpsertContent(ctx, item.Id, core.ContentPatch{
		Text:    &primary,
		OCRText: &ocrText,
	}); err != nil {
		return err
	}

	if w.adapter.Available() && (visionText != "" || ocrText != "") {
		combined := strings.TrimSpace(visionText + "\n" + ocrText)
		summary := w.adapter.Summarize(ctx, truncate(combined, fileSummaryBudget))
		if _, err := w.items.UpdateItem(ctx, item.Id, core.ItemPatch{Summary: &summary}); err != nil {
			return err
		}
	}

	return nil
}

// describeImage runs OCR and the vision model concurrently, settling both
// branches before deciding anything. Either branch may fail; its text is
// simply empty then.
func (w *Worker) describeImage(ctx context.Context, itemID core.ID, mimeType string, data []byte) (ocrText, visionText string) {
	type branch struct {
		text string
		err  error
	}

	ocrCh := make(chan branch, 1)
	visionCh := make(chan branch, 1)
	go func() {
		text, err := w.engine.ExtractText(ctx, data)
		ocrCh <- branch{text: text, err: err}
	}()
	go func() {
		text, err := w.adapter.DescribeImage(ctx, mimeType, data)
		visionCh <- branch{text: text, err: err}
	}()

	ocrResult := <-ocrCh
	visionResult := <-visionCh

	if ocrResult.err != nil {
		w.logger.Warn("ocr failed", "item", itemID, "err", ocrResult.err)
	}
	if visionResult.err != nil {
		w.logger.Warn("vision failed", "item", itemID, "err", visionResult.err)
	}

	return strings.TrimSpace(ocrResult.text), strings.TrimSpace(visionResult.text)
}

// placeholderText is the searchable fallback for files with no extractable text.
func placeholderText(title string) string {
	return "image file: " + title
}

// imageMIMEType guesses the MIME type from the stored reference's extension.
func imageMIMEType(ref string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(ref))); t != "" {
		return t
	}
	return "image/png"
}
