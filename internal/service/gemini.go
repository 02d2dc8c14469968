package service

import (
	"context"
	"fmt"
	"strings"

	"aira/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient talks to Google's Gemini API through the GenAI SDK
type GeminiClient struct {
	client *genai.Client
	config *config.GeminiConfig
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini client. Without an API key the client is
// returned disabled and every call fails with ErrLLMDisabled.
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GeminiClient{config: cfg, logger: logger}
	if !cfg.Enabled {
		logger.Warn("⚠️  GEMINI_API_KEY not set, AI features will return fallback responses")
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	logger.Info("🔧 Using Gemini provider", zap.String("model", cfg.Model))
	return c, nil
}

// IsEnabled returns whether the client is configured and ready
func (c *GeminiClient) IsEnabled() bool {
	return c.client != nil
}

// Complete sends the conversation to the model. System messages are joined
// into the system instruction; assistant and model turns are sent as model.
func (c *GeminiClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.client == nil {
		return "", ErrLLMDisabled
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant, "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	gc := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if c.config.Temperature > 0 {
		t := float32(c.config.Temperature)
		gc.Temperature = &t
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// Embed implements Embedder using the configured embedding model
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.client == nil {
		return nil, ErrLLMDisabled
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, c.config.EmbeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
