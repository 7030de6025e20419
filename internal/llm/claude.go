package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeMaxTokens is the completion budget for planner and dedup
// prompts; both expect a small JSON object back.
const claudeMaxTokens = 1024

// Claude implements Completer on the Anthropic Messages API.
type Claude struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClaude creates a Claude completer. An empty apiKey yields a
// completer whose Available reports false.
func NewClaude(apiKey, model string, logger *slog.Logger) *Claude {
	if apiKey == "" {
		return &Claude{model: model, logger: logger}
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Claude{client: &c, model: model, logger: logger}
}

// Available reports whether an API key was configured.
func (c *Claude) Available() bool { return c.client != nil }

func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("claude completer not configured")
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			return strings.TrimSpace(resp.Content[i].Text), nil
		}
	}
	return "", fmt.Errorf("claude response contained no text block")
}
