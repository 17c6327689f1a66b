package domain

import "time"

// Conversation is caller-side bookkeeping for a multi-turn chat.
// The engine never reads or writes it; the Chat facade and transports do.
type Conversation struct {
	ID           string    `json:"id"`
	History      []Message `json:"history,omitempty"`
	PendingToken string    `json:"pending_token,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Append adds a message to the conversation history.
func (c *Conversation) Append(role Role, content string) {
	if content == "" {
		return
	}
	c.History = append(c.History, Message{Role: role, Content: content})
}
