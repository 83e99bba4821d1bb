package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
)

// Chat is a test double for ai.Summarizer and ai.Classifier.
// It allows custom behavior injection via function fields.
// Safe for concurrent use, matching the interface contract.
type Chat struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, returns the first sentence of the text.
	SummarizeFunc func(ctx context.Context, text string) (string, error)

	// ClassifyFunc is called by Classify if set.
	// If nil, classifies everything as text with high confidence.
	ClassifyFunc func(ctx context.Context, text string) (ai.Classification, error)

	mu        sync.Mutex
	callCount int
}

// NewChat creates a mock summarizer/classifier with default behavior.
// Returns the concrete type so tests can set function fields and read counts.
func NewChat() *Chat {
	return &Chat{}
}

func (m *Chat) record() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// Summarize returns the first sentence of the text by default.
func (m *Chat) Summarize(ctx context.Context, text string) (string, error) {
	m.record()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i > 0 {
		return text[:i+1], nil
	}
	return text, nil
}

// Classify returns a text classification with high confidence by default.
func (m *Chat) Classify(ctx context.Context, text string) (ai.Classification, error) {
	m.record()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return ai.Classification{Kind: core.KindText, Confidence: 0.95}, nil
}

// CallCount returns the number of times any method was called.
func (m *Chat) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *Chat) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.SummarizeFunc = nil
	m.ClassifyFunc = nil
}
