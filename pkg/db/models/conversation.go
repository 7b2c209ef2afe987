package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a customer-workshop message thread, optionally anchored to
// a repair request.
type Conversation struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_conversations_parties"`
	WorkshopID uuid.UUID  `gorm:"column:workshop_id;type:uuid;not null;uniqueIndex:ux_conversations_parties"`
	RequestID  *uuid.UUID `gorm:"column:request_id;type:uuid;uniqueIndex:ux_conversations_parties"`
	Messages   []Message  `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Message is a single chat message inside a conversation.
type Message struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID  `gorm:"column:conversation_id;type:uuid;not null"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null"`
	Body           string     `gorm:"column:body;type:text;not null"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
