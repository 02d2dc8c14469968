package service

import (
	"context"
	"errors"
	"fmt"

	"aira/internal/config"

	"go.uber.org/zap"
)

// Message roles understood by every LLMClient
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrLLMDisabled is returned by clients created without an API key
var ErrLLMDisabled = errors.New("llm client is not configured")

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient sends a conversation to a text model and returns its reply
type LLMClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	IsEnabled() bool
}

// Embedder turns texts into vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewLLMClient builds the client for the configured provider
func NewLLMClient(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(&cfg.OpenAI, logger), nil
	case "gemini", "":
		return NewGeminiClient(ctx, &cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
