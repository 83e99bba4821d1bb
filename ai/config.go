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
	"errors"
	"fmt"
	"strings"
)

// Backend identifies which class of AI backend a provider talks to.
// It is selected once at startup and drives model routing via Routes;
// it is never inferred from a host URL.
type Backend int

const (
	// BackendLocal is a self-hosted OpenAI-compatible server such as
	// Ollama, LocalAI, or vLLM.
	BackendLocal Backend = iota + 1

	// BackendRemote is a hosted OpenAI-compatible API.
	BackendRemote
)

// String returns the human-readable name of the backend.
func (b Backend) String() string {
	switch b {
	case BackendLocal:
		return "local"
	case BackendRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Route holds the model identifiers for one backend.
type Route struct {
	// ChatModel is used for summarization and classification.
	ChatModel string

	// EmbeddingModel is used for text embeddings.
	EmbeddingModel string

	// EmbeddingDim is the dimensionality of vectors produced by EmbeddingModel.
	EmbeddingDim int

	// VisionModel is used for image description.
	VisionModel string
}

// Routes maps each backend to its model route. All model selection goes
// through this table so that fallback between backends stays testable.
var Routes = map[Backend]Route{
	BackendLocal: {
		ChatModel:      "qwen2.5:3b",
		EmbeddingModel: "embeddinggemma",
		EmbeddingDim:   768,
		VisionModel:    "qwen2.5vl:3b",
	},
	BackendRemote: {
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		EmbeddingDim:   1536,
		VisionModel:    "gpt-4o-mini",
	},
}

// Config holds configuration for one AI service provider.
type Config struct {
	// Backend selects the model route for this provider.
	Backend Backend

	// Host is the base URL for the OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local server.
	Host string

	// Token is the API token. Local servers that don't require
	// authentication accept any non-empty value.
	Token string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the backend, selecting its model route.
func WithBackend(b Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = b
	}
}

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendLocal,
		Host:    "http://localhost:11434/v1",
		Token:   "none",
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendRemote),
//	    WithHost("https://api.openai.com"),
//	    WithToken(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Route returns the model route for the configured backend.
func (c *Config) Route() Route {
	return Routes[c.Backend]
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if _, ok := Routes[c.Backend]; !ok {
		return fmt.Errorf("ai config: unknown backend %d", int(c.Backend))
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	return nil
}
