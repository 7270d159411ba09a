package models

import "time"

type Message struct {
	MessageID string      `json:"messageId"`
	Text      *string     `json:"text"`
	Image     *string     `json:"image"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Sender    UserSummary `json:"sender"`
	Receiver  UserSummary `json:"receiver"`
}

// Conversation is a two-party thread with its messages ordered by creation.
type Conversation struct {
	ConversationID        string        `json:"conversationId"`
	ConversationName      *string       `json:"conversationName"`
	ConversationCreatedAt time.Time     `json:"conversationCreatedAt"`
	Messages              []Message     `json:"messages"`
	Users                 []UserSummary `json:"users"`
}

// UserWithConversations is one row of the aggregate conversation read.
type UserWithConversations struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Image         *string        `json:"image"`
	Conversations []Conversation `json:"conversations"`
}

type NewMessage struct {
	Text           *string `json:"text"`
	Image          *string `json:"image"`
	SenderID       string  `json:"senderId"`
	ReceiverID     string  `json:"receiverId"`
	ConversationID string  `json:"conversationId"`
}
