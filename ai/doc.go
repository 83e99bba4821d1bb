// Package ai defines the AI service abstractions used by the enrichment
// pipeline and the search engine, along with the Adapter that mediates
// between callers and concrete providers.
//
// # Service Interfaces
//
// The package is designed around four narrow service interfaces:
//
//   - Summarizer: Condenses text into a short summary
//   - Classifier: Assigns an item kind with a confidence score
//   - Embedder: Generates vector embeddings from text
//   - Vision: Describes image content in natural language
//
// Provider aggregates all four for convenient initialization.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Backend Routing
//
// Model selection is table-driven. A Backend is chosen once at startup
// (BackendLocal or BackendRemote) and Routes maps it to the chat, embedding,
// and vision models for that backend. Nothing in the codebase infers a
// backend from a URL.
//
// # The Adapter
//
// Callers never talk to a Provider directly; they go through Adapter, which
// owns the degrade and fallback policy:
//
//   - Summarize and Classify never fail: on any provider error the caller
//     receives a deterministic fallback (truncated text, default kind).
//   - EmbedText and DescribeImage fail upward so callers can skip the
//     embedding or vision step entirely.
//   - A ModelUnavailableError from the primary provider triggers a single
//     retry against the secondary provider, if one is configured. Any other
//     error class propagates immediately.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithBackend(ai.BackendLocal), ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	adapter := ai.NewAdapter(provider, nil)
//	summary := adapter.Summarize(ctx, longText)
//	vector, err := adapter.EmbedText(ctx, summary)
package ai
