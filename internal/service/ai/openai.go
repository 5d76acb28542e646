package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/zhouzirui/ergodesk/backend/internal/config"
	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	llm     llms.Model
	options []llms.CallOption
}

// NewOpenAIGenerator builds a langchaingo OpenAI client from cfg.
func NewOpenAIGenerator(cfg config.GeneratorConfig) (*OpenAIGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	var callOpts []llms.CallOption
	if cfg.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		callOpts = append(callOpts, llms.WithTopP(*cfg.TopP))
	}
	if cfg.MaxTokens != nil {
		callOpts = append(callOpts, llms.WithMaxTokens(*cfg.MaxTokens))
	}

	return &OpenAIGenerator{llm: llm, options: callOpts}, nil
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, history []chat.Turn, payload string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, turn.Text))
		case chat.RoleAssistant:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeAI, turn.Text))
		}
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, payload))

	resp, err := g.llm.GenerateContent(ctx, messages, g.options...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}
