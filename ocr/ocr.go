// Package ocr defines the text-extraction seam used by the enrichment worker
// for image files. The production engine lives in ocr/tesseract; Noop serves
// deployments without an OCR toolchain and tests.
package ocr

import "context"

// Engine extracts text from an image.
// Implementations must be thread-safe for concurrent use.
type Engine interface {
	// ExtractText returns the text visible in the image, or an empty string
	// when the image contains none.
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Noop is an Engine that extracts nothing. The enrichment pipeline treats
// empty OCR text as "no text found" and carries on.
type Noop struct{}

var _ Engine = (*Noop)(nil)

// ExtractText always returns an empty string.
func (Noop) ExtractText(ctx context.Context, image []byte) (string, error) {
	return "", nil
}
