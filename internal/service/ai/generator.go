package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/ergodesk/backend/internal/config"
	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
)

// ErrEmptyReply is returned when a provider answers with no text.
var ErrEmptyReply = errors.New("generator returned an empty reply")

// Generator produces one consultant reply for an outbound payload. history
// holds the turns recorded before this payload, oldest first.
type Generator interface {
	Generate(ctx context.Context, history []chat.Turn, payload string) (string, error)
}

// NewGenerator builds the provider selected by cfg.
func NewGenerator(ctx context.Context, cfg config.GeneratorConfig) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderArk:
		return NewArkGenerator(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg)
	default:
		return nil, fmt.Errorf("unsupported generator provider %q", cfg.Provider)
	}
}
