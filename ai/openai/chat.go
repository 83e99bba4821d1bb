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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Chat implements ai.Summarizer and ai.Classifier using OpenAI-compatible
// chat APIs.
type Chat struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// classification is an internal type used for JSON unmarshaling.
// It matches the structure requested from the LLM.
type classification struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

// newChat is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChat(config *ai.Config) (*Chat, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	route := config.Route()

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(route.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Chat{
		client: client,
		model:  route.ChatModel,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChat creates a summarizer/classifier using the provided configuration.
func NewChat(config *ai.Config) (*Chat, error) {
	return newChat(config)
}

// Summarize returns a short summary of the text.
func (c *Chat) Summarize(ctx context.Context, text string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(summaryPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Error("failed to generate summary", "err", err)
		return "", wrapModelErr(c.model, err)
	}
	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return "", fmt.Errorf("summarize: empty response from %s", c.model)
	}

	return cleanResponse(response.Choices[0].Content), nil
}

// Classify assigns an item kind to the text using JSON-mode chat.
// Malformed JSON is repaired and, failing that, requested again, up to 3
// attempts total.
func (c *Chat) Classify(ctx context.Context, text string) (ai.Classification, error) {
	systemPrompt := fmt.Sprintf(classificationPromptTemplate, classificationResponseSchema)
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var result classification
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate classification", "attempt", attempt+1, "err", err)
			return ai.Classification{}, wrapModelErr(c.model, err)
		}
		if len(response.Choices) < 1 {
			return ai.Classification{}, fmt.Errorf("classify: empty response from %s", c.model)
		}

		responseText := repairJSON(cleanResponse(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}
	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return ai.Classification{}, lastErr
	}

	kind, err := parseKind(result.Kind)
	if err != nil {
		return ai.Classification{}, err
	}
	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return ai.Classification{Kind: kind, Confidence: confidence}, nil
}

// parseKind maps the classifier's kind label to a core.ItemKind.
func parseKind(label string) (core.ItemKind, error) {
	switch label {
	case "text":
		return core.KindText, nil
	case "link":
		return core.KindLink, nil
	case "file":
		return core.KindFile, nil
	default:
		return 0, fmt.Errorf("classify: %w: %q", core.ErrInvalidKind, label)
	}
}
