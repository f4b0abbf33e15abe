package models

import "time"

// Sender identifies who wrote a chat message.
type Sender string

// Chat participants.
const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry in the assistant transcript.
type ChatMessage struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Sender    Sender     `json:"sender"`
	Timestamp time.Time  `json:"timestamp"`
	Complaint *Complaint `json:"complaint,omitempty"`
}

// ChatReply is the assistant answer to a single message.
type ChatReply struct {
	BotResponse string     `json:"bot_response"`
	Complaint   *Complaint `json:"complaint_data,omitempty"`
}
