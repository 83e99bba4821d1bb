// Package mock provides test double implementations of the AI service
// interfaces.
//
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - Embedder: Returns deterministic unit vectors from an FNV hash of the text
//   - Chat: Summarizes to the first sentence, classifies everything as text
//   - Vision: Returns a fixed description mentioning the byte count
//
// Constructors for individual mocks return concrete types so tests can set
// function fields and read call counts; NewProvider returns the ai.Provider
// interface for consistency with production constructors.
package mock
