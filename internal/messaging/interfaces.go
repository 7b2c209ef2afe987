package messaging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

// Repository defines persistence operations for conversations and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConversation(ctx context.Context, customerID, workshopID uuid.UUID, requestID *uuid.UUID) (*models.Conversation, error)
	FindConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ConversationList, error)
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, params pagination.Params) (*MessageList, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	TouchConversation(ctx context.Context, conversationID uuid.UUID) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}
