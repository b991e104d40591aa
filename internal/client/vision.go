package client

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

const extractSystemPrompt = `You will receive a free-text request for a walking route.
Answer with exactly two lines and nothing else:
line 1 is the departure place name, line 2 is the destination place name.
Keep the place names in the language of the request.`

const explainSystemPrompt = `You will receive a walking-route request and a satellite image of the route area.
Describe the surroundings of the walk in a short, friendly narration.
If the image tells you nothing useful, answer with an empty string.`

// VisionClient is the language/vision service with two entry points: place
// extraction from free text, and scene narration from text plus imagery.
type VisionClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// NewVisionClient creates a client for the configured model.
func NewVisionClient(apiKey, model string, maxTokens int64, logger *zap.Logger) *VisionClient {
	return &VisionClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// ExtractPlaces returns the model's raw output for the request text. The
// orchestrator validates the two-line contract.
func (v *VisionClient) ExtractPlaces(ctx context.Context, text string) (string, error) {
	resp, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: v.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: extractSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", walk.NewServiceError("place extraction failed", err)
	}
	out := collectText(resp)
	v.logger.Debug("extracted places", zap.String("raw", out))
	return out, nil
}

// ExplainScene returns the model's narration for the route imagery. An empty
// result means "no explanation available" and is not an error.
func (v *VisionClient) ExplainScene(ctx context.Context, text string, image walk.EncodedImage) (string, error) {
	resp, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: v.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: explainSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(text),
				anthropic.NewImageBlockBase64(image.MediaType, image.Data),
			),
		},
	})
	if err != nil {
		return "", walk.NewServiceError("scene explanation failed", err)
	}
	return strings.TrimSpace(collectText(resp)), nil
}

func collectText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
