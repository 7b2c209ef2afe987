package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// OpenInput resolves or creates the thread between the actor and a
// counterpart, optionally anchored to a repair request.
type OpenInput struct {
	CounterpartID uuid.UUID
	RequestID     *uuid.UUID
	ActorUserID   uuid.UUID
	ActorRole     enums.AppRole
}

// SendInput carries one outgoing chat message.
type SendInput struct {
	ConversationID uuid.UUID
	Body           string
	ActorUserID    uuid.UUID
}

// ConversationSummary is one thread as listed in a user's inbox.
type ConversationSummary struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	WorkshopID  uuid.UUID  `json:"workshop_id"`
	RequestID   *uuid.UUID `json:"request_id,omitempty"`
	LastMessage *string    `json:"last_message,omitempty"`
	UnreadCount int64      `json:"unread_count"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ConversationList is a cursor page of conversations.
type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

// MessageView is one message as returned to clients.
type MessageView struct {
	ID        uuid.UUID  `json:"id"`
	SenderID  uuid.UUID  `json:"sender_id"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MessageList is a cursor page of messages, newest first.
type MessageList struct {
	Messages   []MessageView `json:"messages"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
