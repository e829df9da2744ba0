package chat

import "time"

// Sender distinguishes the two sides of a conversation.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one rendered line of the transcript. Messages are append-only.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Type      Sender    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
