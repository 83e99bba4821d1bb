// Package openai implements the ai service interfaces against
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI itself).
//
// Model selection comes entirely from the ai.Routes table for the configured
// backend. The package detects the provider's "model not found" responses in
// exactly one place (wrapModelErr) and surfaces them as
// ai.ModelUnavailableError so that the Adapter's fallback policy can act on
// them.
//
// Public constructors return interface types to enforce abstraction:
//
//	provider, err := openai.NewProvider(cfg)  // returns ai.Provider
package openai
