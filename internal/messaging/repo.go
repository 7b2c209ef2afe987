package messaging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a messaging repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindConversation(ctx context.Context, customerID, workshopID uuid.UUID, requestID *uuid.UUID) (*models.Conversation, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ? AND workshop_id = ?", customerID, workshopID)
	if requestID != nil {
		query = query.Where("request_id = ?", *requestID)
	} else {
		query = query.Where("request_id IS NULL")
	}
	var conversation models.Conversation
	if err := query.First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repository) FindConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repository) CreateConversation(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *repository) ListConversations(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ConversationList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("customer_id = ? OR workshop_id = ?", userID, userID)
	if cursor != nil {
		query = query.Where("(conversations.updated_at, conversations.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)

	type conversationRow struct {
		models.Conversation
		LastMessage *string
		UnreadCount int64
	}
	var rows []conversationRow
	err = query.
		Select(`conversations.*,
			(SELECT body FROM messages m WHERE m.conversation_id = conversations.id ORDER BY m.created_at DESC LIMIT 1) AS last_message,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = conversations.id AND m.sender_id <> ? AND m.read_at IS NULL) AS unread_count`, userID).
		Order("conversations.updated_at DESC").
		Order("conversations.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &ConversationList{Conversations: make([]ConversationSummary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Conversations = append(list.Conversations, ConversationSummary{
			ID:          row.ID,
			CustomerID:  row.CustomerID,
			WorkshopID:  row.WorkshopID,
			RequestID:   row.RequestID,
			LastMessage: row.LastMessage,
			UnreadCount: row.UnreadCount,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.UpdatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID, params pagination.Params) (*MessageList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)

	var rows []models.Message
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &MessageList{Messages: make([]MessageView, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Messages = append(list.Messages, MessageView{
			ID:        row.ID,
			SenderID:  row.SenderID,
			Body:      row.Body,
			ReadAt:    row.ReadAt,
			CreatedAt: row.CreatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", gorm.Expr("NOW()")).Error
}

func (r *repository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.customer_id = ? OR conversations.workshop_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) TouchConversation(ctx context.Context, conversationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", gorm.Expr("NOW()")).Error
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
