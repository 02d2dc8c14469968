package handler

import (
	"net/http"
	"strings"

	"aira/internal/model"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles chatbox messages
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /api/v1/chat. Model failures are answered with a
// fallback reply, never an error status.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: message must not be empty"})
		return
	}

	reply := h.chat.Reply(c.Request.Context(), req)
	c.JSON(http.StatusOK, model.ChatResponse{Response: reply})
}
