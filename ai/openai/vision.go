package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/keepsake/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Vision implements ai.Vision using OpenAI-compatible multimodal chat APIs.
type Vision struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newVision is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newVision(config *ai.Config) (*Vision, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	route := config.Route()

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(route.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Vision{
		client: client,
		model:  route.VisionModel,
		logger: slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewVision creates an image description service using the provided configuration.
//
// Returns ai.Vision interface to enforce abstraction.
func NewVision(config *ai.Config) (ai.Vision, error) {
	return newVision(config)
}

// DescribeImage returns a natural-language description of the image bytes.
func (v *Vision) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	v.logger.Debug("describing image", "mimeType", mimeType, "bytes", len(data))

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(visionPrompt),
				llms.BinaryPart(mimeType, data),
			},
		},
	}

	response, err := v.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		v.logger.Error("failed to describe image", "err", err)
		return "", wrapModelErr(v.model, err)
	}
	if len(response.Choices) < 1 {
		return "", fmt.Errorf("describe image: empty response from %s", v.model)
	}

	return cleanResponse(response.Choices[0].Content), nil
}
