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


package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/keepsake/core"
)

// fallbackSummaryLimit caps the length of a degraded summary.
const fallbackSummaryLimit = 280

// Adapter mediates between callers and AI providers, owning the degrade and
// fallback policy. The enrichment worker and the search engine consume this
// type, never a Provider directly.
//
// Summarize and Classify never return errors: any provider failure yields a
// deterministic fallback. EmbedText and DescribeImage fail upward so callers
// can skip the step entirely. A ModelUnavailableError from the primary
// provider triggers exactly one retry against the secondary provider; any
// other error class propagates immediately.
type Adapter struct {
	primary   Provider
	secondary Provider
	logger    *slog.Logger
}

// NewAdapter creates an adapter over a primary and optional secondary
// provider. Both may be nil, in which case Summarize and Classify serve
// fallbacks and EmbedText/DescribeImage return ErrNoProvider.
func NewAdapter(primary, secondary Provider) *Adapter {
	return &Adapter{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default().With("component", "ai-adapter"),
	}
}

// Available reports whether any provider is configured.
func (a *Adapter) Available() bool {
	return a.primary != nil || a.secondary != nil
}

// Close closes both providers, returning the first error encountered.
func (a *Adapter) Close() error {
	var firstErr error
	if a.primary != nil {
		firstErr = a.primary.Close()
	}
	if a.secondary != nil {
		if err := a.secondary.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Summarize returns a short summary of text. It never fails: on any provider
// error the caller receives FallbackSummary(text) instead.
func (a *Adapter) Summarize(ctx context.Context, text string) string {
	if !a.Available() {
		return FallbackSummary(text)
	}
	summary, err := withFallback(a, func(p Provider) (string, error) {
		return p.Summarizer().Summarize(ctx, text)
	})
	if err != nil {
		a.logger.Warn("summarize degraded to truncation", "err", err)
		return FallbackSummary(text)
	}
	return summary
}

// Classify returns the item kind for text. It never fails: on any provider
// error the caller receives the default classification (KindText, zero
// confidence) instead.
func (a *Adapter) Classify(ctx context.Context, text string) Classification {
	if !a.Available() {
		return FallbackClassification()
	}
	cls, err := withFallback(a, func(p Provider) (Classification, error) {
		return p.Classifier().Classify(ctx, text)
	})
	if err != nil {
		a.logger.Warn("classify degraded to default kind", "err", err)
		return FallbackClassification()
	}
	return cls
}

// EmbedText generates an embedding for text. Unlike Summarize and Classify
// it fails upward, so callers know to skip the embedding step.
func (a *Adapter) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if !a.Available() {
		return nil, ErrNoProvider
	}
	return withFallback(a, func(p Provider) ([]float32, error) {
		return p.Embedder().EmbedText(ctx, text)
	})
}

// EmbedTexts generates embeddings for a batch of texts in one provider call.
// Same error contract as EmbedText.
func (a *Adapter) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if !a.Available() {
		return nil, ErrNoProvider
	}
	return withFallback(a, func(p Provider) ([][]float32, error) {
		return p.Embedder().EmbedTexts(ctx, texts)
	})
}

// DescribeImage returns a description of the image bytes. Like EmbedText it
// fails upward, so callers know to skip the vision step.
func (a *Adapter) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	if !a.Available() {
		return "", ErrNoProvider
	}
	return withFallback(a, func(p Provider) (string, error) {
		return p.Vision().DescribeImage(ctx, mimeType, data)
	})
}

// withFallback runs call against the primary provider, retrying once against
// the secondary only when the primary fails with ModelUnavailableError.
func withFallback[T any](a *Adapter, call func(Provider) (T, error)) (T, error) {
	if a.primary == nil {
		return call(a.secondary)
	}

	result, err := call(a.primary)
	if err == nil {
		return result, nil
	}
	if a.secondary != nil && IsModelUnavailable(err) {
		a.logger.Info("model unavailable on primary, retrying on secondary", "err", err)
		return call(a.secondary)
	}
	return result, err
}

// FallbackSummary is the deterministic summary used when no provider can
// serve a summarize call. It truncates text at a sentence boundary where one
// exists within the limit, otherwise at a word boundary.
func FallbackSummary(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= fallbackSummaryLimit {
		return text
	}

	head := text[:fallbackSummaryLimit]
	if i := strings.LastIndexAny(head, ".!?"); i > 0 {
		return strings.TrimSpace(head[:i+1])
	}
	if i := strings.LastIndex(head, " "); i > 0 {
		head = head[:i]
	}
	return strings.TrimSpace(head)
}

// FallbackClassification is the deterministic classification used when no
// provider can serve a classify call.
func FallbackClassification() Classification {
	return Classification{Kind: core.KindText, Confidence: 0}
}
