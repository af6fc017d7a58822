package models

import "time"

// ChatMessage is one line of the assistant conversation. IsUser marks
// messages typed by the user; the rest come from the assistant.
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	NoteID    string    `json:"noteId,omitempty"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendMessageRequest is the payload for chat/message (and its guest variant).
type SendMessageRequest struct {
	Message string `json:"message"`
	NoteID  string `json:"noteId,omitempty"`
}

// ChatResponse is the assistant reply returned by the chat endpoints.
type ChatResponse struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
