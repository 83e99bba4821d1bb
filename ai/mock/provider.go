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


package mock

import "github.com/poiesic/keepsake/ai"

// Provider is a test double for ai.Provider.
// It aggregates mock chat, embedder, and vision instances.
type Provider struct {
	chat     *Chat
	embedder *Embedder
	vision   *Vision
}

// NewProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use MockChat()/MockEmbedder()/MockVision() to access concrete types for
// test assertions.
func NewProvider() ai.Provider {
	return &Provider{
		chat:     NewChat(),
		embedder: NewEmbedder(),
		vision:   NewVision(),
	}
}

// NewProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewProviderWithServices(chat *Chat, embedder *Embedder, vision *Vision) ai.Provider {
	return &Provider{
		chat:     chat,
		embedder: embedder,
		vision:   vision,
	}
}

// Summarizer returns the mock chat service.
func (p *Provider) Summarizer() ai.Summarizer {
	return p.chat
}

// Classifier returns the mock chat service.
func (p *Provider) Classifier() ai.Classifier {
	return p.chat
}

// Embedder returns the mock embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Vision returns the mock vision service.
func (p *Provider) Vision() ai.Vision {
	return p.vision
}

// Close is a no-op for the mock provider.
func (p *Provider) Close() error {
	return nil
}

// MockChat returns the underlying mock chat service for test assertions.
func (p *Provider) MockChat() *Chat {
	return p.chat
}

// MockEmbedder returns the underlying mock embedder for test assertions.
func (p *Provider) MockEmbedder() *Embedder {
	return p.embedder
}

// MockVision returns the underlying mock vision service for test assertions.
func (p *Provider) MockVision() *Vision {
	return p.vision
}
