package model

// Chat roles as sent by the client
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatPart is one text fragment of a chat turn
type ChatPart struct {
	Text string `json:"text"`
}

// ChatTurn is a role-tagged turn in the client-held conversation
type ChatTurn struct {
	Role  string     `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// Text returns the first part's text, or "" for a turn without parts
func (t ChatTurn) Text() string {
	if len(t.Parts) == 0 {
		return ""
	}
	return t.Parts[0].Text
}

// ChatRequest represents a chat request
type ChatRequest struct {
	Message string     `json:"message" binding:"required"`
	History []ChatTurn `json:"history"`
}

// ChatResponse represents a chat response
type ChatResponse struct {
	Response string `json:"response"`
}
