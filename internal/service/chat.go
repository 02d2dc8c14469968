package service

import (
	"context"

	"aira/internal/model"

	"go.uber.org/zap"
)

// ChatFallback is the reply sent whenever the model cannot answer
const ChatFallback = "Sorry, I am having trouble connecting to my brain right now. Please try again later."

// DefaultHistoryWindow is how many prior turns are sent as context
const DefaultHistoryWindow = 10

const chatSystemPrompt = `You are AIRA's floating chatbox assistant.
Your role is to help users understand and interact with AIRA (Artificial Intelligence Real-estate Assets), a marketplace for fractional real estate NFTs. You can also provide personalized investment advice.

Guidelines:
1. Remember only the last 10 messages of the conversation for context.
2. Be brief, clear, and easy to understand in replies.
3. Do not provide or engage in political content or any sexual content.
4. Focus only on AIRA, real estate investing, fractional NFTs, blockchain, and related AI-powered insights.
5. If a user asks for investment advice, recommendations, or a portfolio, you can help them. Ask for their goals (e.g., 'High Growth' or 'Stable Income') and their budget.
6. If a question is outside your scope, politely say: "I can only help with AIRA-related queries."

Your goal is to make real estate investing concepts simple for everyone using the chatbox.`

// TrimHistory drops turns without text and keeps the last window turns,
// oldest first
func TrimHistory(history []model.ChatTurn, window int) []model.ChatTurn {
	kept := make([]model.ChatTurn, 0, len(history))
	for _, turn := range history {
		if turn.Text() == "" {
			continue
		}
		kept = append(kept, turn)
	}
	if window < 0 {
		window = 0
	}
	if len(kept) > window {
		kept = kept[len(kept)-window:]
	}
	return kept
}

// ChatService answers chatbox messages
type ChatService struct {
	llm    LLMClient
	window int
	logger *zap.Logger
}

// NewChatService creates a chat service that sends at most window prior turns
func NewChatService(llm LLMClient, window int, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{llm: llm, window: window, logger: logger}
}

// BuildMessages assembles the outgoing conversation: system instruction,
// trimmed history, then the new message
func (s *ChatService) BuildMessages(req model.ChatRequest) []ChatMessage {
	history := TrimHistory(req.History, s.window)

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: chatSystemPrompt})
	for _, turn := range history {
		role := RoleAssistant
		if turn.Role == model.RoleUser {
			role = RoleUser
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text()})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: req.Message})
	return messages
}

// Reply returns the model's answer, or ChatFallback on any failure
func (s *ChatService) Reply(ctx context.Context, req model.ChatRequest) string {
	reply, err := s.llm.Complete(ctx, s.BuildMessages(req))
	if err != nil {
		s.logger.Error("chat model call failed", zap.Error(err))
		return ChatFallback
	}
	if reply == "" {
		s.logger.Warn("chat model returned an empty reply")
		return ChatFallback
	}
	return reply
}
