package ai

import (
	"context"

	"github.com/poiesic/keepsake/core"
)

// Summarizer condenses text into a short summary.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize returns a short natural-language summary of the text.
	// Returns an error if summary generation fails; the Adapter converts
	// that error into a deterministic fallback before callers see it.
	Summarize(ctx context.Context, text string) (string, error)
}

// Classifier assigns an item kind to a piece of text.
// Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Classify analyzes text and returns the item kind that best fits it
	// along with a confidence score.
	Classify(ctx context.Context, text string) (Classification, error)
}

// Classification is the result of classifying a piece of text.
type Classification struct {
	// Kind is the item kind the classifier assigned.
	Kind core.ItemKind

	// Confidence is the classifier's confidence in the assignment,
	// in the range [0, 1]. Zero means the result is a fallback.
	Confidence float64
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Vision describes image content in natural language.
// Implementations must be thread-safe for concurrent use.
type Vision interface {
	// DescribeImage returns a natural-language description of the image bytes.
	// mimeType identifies the image format, e.g. "image/png".
	DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages its service instances, ensuring
// they share configuration and resources appropriately.
type Provider interface {
	// Summarizer returns the text summarization service.
	Summarizer() Summarizer

	// Classifier returns the kind classification service.
	Classifier() Classifier

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Vision returns the image description service.
	Vision() Vision

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
