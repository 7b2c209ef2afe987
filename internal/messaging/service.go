package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

const (
	maxMessageLength = 4000
	previewLength    = 120
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines conversation and messaging operations.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Conversation, error)
	Send(ctx context.Context, input SendInput) (*models.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ConversationList, error)
	ListMessages(ctx context.Context, conversationID, actorUserID uuid.UUID, params pagination.Params) (*MessageList, error)
	MarkRead(ctx context.Context, conversationID, actorUserID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a messaging service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("messaging repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Open returns the thread between the two parties, creating it when absent.
// The (customer, workshop, request) triple is unique so concurrent opens
// collapse onto the same row.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Conversation, error) {
	if input.CounterpartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterpart id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CounterpartID == input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot open a conversation with yourself")
	}

	var customerID, workshopID uuid.UUID
	switch input.ActorRole {
	case enums.AppRoleCustomer:
		customerID, workshopID = input.ActorUserID, input.CounterpartID
	case enums.AppRoleWorkshop:
		customerID, workshopID = input.CounterpartID, input.ActorUserID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	counterpart, err := s.repo.FindUser(ctx, input.CounterpartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counterpart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counterpart")
	}
	if counterpart.Role == input.ActorRole {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversations pair a customer with a workshop")
	}

	var conversation *models.Conversation
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindConversation(ctx, customerID, workshopID, input.RequestID)
		if err == nil {
			conversation = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup conversation")
		}

		created, err := repo.CreateConversation(ctx, &models.Conversation{
			CustomerID: customerID,
			WorkshopID: workshopID,
			RequestID:  input.RequestID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
		}
		conversation = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *service) Send(ctx context.Context, input SendInput) (*models.Message, error) {
	if input.ConversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	var message *models.Message
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		conversation, err := repo.FindConversationByID(ctx, input.ConversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
		}
		recipientID, err := counterpartOf(conversation, input.ActorUserID)
		if err != nil {
			return err
		}

		created, err := repo.CreateMessage(ctx, &models.Message{
			ConversationID: conversation.ID,
			SenderID:       input.ActorUserID,
			Body:           body,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
		}
		message = created

		if err := repo.TouchConversation(ctx, conversation.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch conversation")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMessageSent,
			AggregateType: enums.AggregateMessage,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID},
			Data: payloads.MessageSentEvent{
				MessageID:      created.ID,
				ConversationID: conversation.ID,
				SenderID:       input.ActorUserID,
				RecipientID:    recipientID,
				Preview:        preview(body),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ConversationList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListConversations(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	return list, nil
}

func (s *service) ListMessages(ctx context.Context, conversationID, actorUserID uuid.UUID, params pagination.Params) (*MessageList, error) {
	if _, err := s.memberConversation(ctx, conversationID, actorUserID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListMessages(ctx, conversationID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	return list, nil
}

// MarkRead stamps read_at on every counterpart message in the thread.
func (s *service) MarkRead(ctx context.Context, conversationID, actorUserID uuid.UUID) error {
	if _, err := s.memberConversation(ctx, conversationID, actorUserID); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, conversationID, actorUserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark messages read")
	}
	return nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}
	return count, nil
}

func (s *service) memberConversation(ctx context.Context, conversationID, actorUserID uuid.UUID) (*models.Conversation, error) {
	if conversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	conversation, err := s.repo.FindConversationByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}
	if _, err := counterpartOf(conversation, actorUserID); err != nil {
		return nil, err
	}
	return conversation, nil
}

func counterpartOf(conversation *models.Conversation, userID uuid.UUID) (uuid.UUID, error) {
	switch userID {
	case conversation.CustomerID:
		return conversation.WorkshopID, nil
	case conversation.WorkshopID:
		return conversation.CustomerID, nil
	default:
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "conversation does not belong to user")
	}
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength])
}
