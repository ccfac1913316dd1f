package moderation

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-haiku-20240307"

type AnthropicClassifier struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClassifier(apiKey, model string) *AnthropicClassifier {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClassifier) Name() string { return "anthropic" }

func (c *AnthropicClassifier) Classify(ctx context.Context, text string) (Result, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(classifyPrompt, text))),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic classify: %w", err)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return parseResult(content)
}
