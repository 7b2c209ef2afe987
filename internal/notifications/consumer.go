package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/idempotency"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
)

const marketplaceNotificationConsumer = "marketplace-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and fans them out as in-app notifications
// for the affected party.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a marketplace notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	parsed, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, marketplaceNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.route(ctx, parsed, envelope); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, marketplaceNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

// route decodes the payload for the event type and writes the notification
// rows it implies. Events with no in-app surface are dropped silently.
func (c *Consumer) route(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	switch eventType {
	case enums.EventOfferSubmitted:
		var payload payloads.OfferSubmittedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.CustomerID, enums.NotificationTypeNewOffer,
			"Nueva oferta recibida",
			fmt.Sprintf("Un taller ha ofertado entre %s y %s EUR por tu reparación.", payload.CostMin, payload.CostMax),
			requestLink(payload.RequestID))

	case enums.EventOfferAccepted:
		var payload payloads.OfferAcceptedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.WorkshopID, enums.NotificationTypeOfferAccepted,
			"Oferta aceptada",
			"El cliente ha aceptado tu oferta. Prepara la recepción del dispositivo.",
			requestLink(payload.RequestID))

	case enums.EventCounterOfferProposed:
		var payload payloads.CounterOfferProposedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		recipient := payload.WorkshopID
		if payload.ProposedBy == enums.ProposerWorkshop {
			recipient = payload.CustomerID
		}
		return c.create(ctx, recipient, enums.NotificationTypeCounterOffer,
			"Nueva contraoferta",
			fmt.Sprintf("Has recibido una contraoferta de %s EUR (ronda %d de %d).", payload.Amount, payload.Round, 3),
			requestLink(payload.RequestID))

	case enums.EventCounterOfferResolved:
		var payload payloads.CounterOfferResolvedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.routeCounterResolved(ctx, envelope.Actor, payload)

	case enums.EventFinalQuoteSubmitted:
		var payload payloads.FinalQuoteSubmittedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.CustomerID, enums.NotificationTypeStatusChange,
			"Presupuesto final disponible",
			fmt.Sprintf("El taller ha enviado el presupuesto final: %s EUR.", payload.FinalQuote),
			requestLink(payload.RequestID))

	case enums.EventRequestStatusChanged:
		var payload payloads.RequestStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.routeStatusChanged(ctx, envelope.Actor, payload)

	case enums.EventShipmentUpdated:
		var payload payloads.ShipmentUpdatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.routeShipmentUpdated(ctx, payload)

	case enums.EventMessageSent:
		var payload payloads.MessageSentEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		return c.create(ctx, payload.RecipientID, enums.NotificationTypeMessage,
			"Nuevo mensaje",
			payload.Preview,
			fmt.Sprintf("/conversations/%s", payload.ConversationID))

	default:
		return nil
	}
}

func (c *Consumer) routeCounterResolved(ctx context.Context, actor *outbox.ActorRef, payload payloads.CounterOfferResolvedEvent) error {
	// Tell the party that did not click the button.
	recipient := payload.CustomerID
	if actor != nil && actor.Role == enums.AppRoleCustomer.String() {
		recipient = payload.WorkshopID
	}
	title := "Contraoferta rechazada"
	message := fmt.Sprintf("La contraoferta de %s EUR ha sido rechazada.", payload.Amount)
	if payload.Resolution == enums.CounterOfferStatusAccepted {
		title = "Contraoferta aceptada"
		message = fmt.Sprintf("Acuerdo cerrado por %s EUR.", payload.Amount)
	} else if payload.Exhausted {
		message = "La negociación ha terminado sin acuerdo y la solicitud se ha cancelado."
	}
	return c.create(ctx, recipient, enums.NotificationTypeCounterOffer, title, message, requestLink(payload.RequestID))
}

func (c *Consumer) routeStatusChanged(ctx context.Context, actor *outbox.ActorRef, payload payloads.RequestStatusChangedEvent) error {
	message := fmt.Sprintf("Tu reparación ha pasado a: %s.", statusLabel(payload.ToStatus))
	// The actor already knows; notify the counterpart.
	if actor != nil && actor.Role == enums.AppRoleCustomer.String() {
		if payload.WorkshopID == nil {
			return nil
		}
		return c.create(ctx, *payload.WorkshopID, enums.NotificationTypeStatusChange,
			"Solicitud actualizada",
			fmt.Sprintf("La solicitud ha pasado a: %s.", statusLabel(payload.ToStatus)),
			requestLink(payload.RequestID))
	}
	return c.create(ctx, payload.CustomerID, enums.NotificationTypeStatusChange,
		"Reparación actualizada", message, requestLink(payload.RequestID))
}

func (c *Consumer) routeShipmentUpdated(ctx context.Context, payload payloads.ShipmentUpdatedEvent) error {
	// Delivery to the workshop concerns the workshop; everything else is
	// customer-facing tracking.
	if payload.Type == enums.ShipmentTypeToWorkshop && payload.Status == enums.ShipmentStatusDelivered {
		if payload.WorkshopID == nil {
			return nil
		}
		return c.create(ctx, *payload.WorkshopID, enums.NotificationTypeStatusChange,
			"Dispositivo recibido",
			"El dispositivo ha llegado al taller. Puedes iniciar el diagnóstico.",
			requestLink(payload.RequestID))
	}
	if payload.Status == enums.ShipmentStatusCreated {
		return nil
	}
	return c.create(ctx, payload.CustomerID, enums.NotificationTypeStatusChange,
		"Envío actualizado",
		fmt.Sprintf("Tu envío está ahora: %s.", shipmentLabel(payload.Status)),
		requestLink(payload.RequestID))
}

func (c *Consumer) create(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, title, message, link string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("recipient missing")
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Link:    stringPtr(link),
	})
}

func requestLink(requestID uuid.UUID) string {
	return fmt.Sprintf("/requests/%s", requestID)
}

var statusLabels = map[enums.RepairStatus]string{
	enums.RepairStatusWaitingOffers:    "esperando ofertas",
	enums.RepairStatusOfferSelected:    "oferta seleccionada",
	enums.RepairStatusInTransitToShop:  "en camino al taller",
	enums.RepairStatusDiagnosis:        "en diagnóstico",
	enums.RepairStatusFinalQuote:       "presupuesto final",
	enums.RepairStatusNegotiating:      "en negociación",
	enums.RepairStatusRepairing:        "en reparación",
	enums.RepairStatusRepaired:         "reparado",
	enums.RepairStatusInTransitToOwner: "en camino de vuelta",
	enums.RepairStatusCompleted:        "completado",
	enums.RepairStatusCanceled:         "cancelado",
}

func statusLabel(status enums.RepairStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status.String()
}

var shipmentLabels = map[enums.ShipmentStatus]string{
	enums.ShipmentStatusCreated:        "etiqueta creada",
	enums.ShipmentStatusPickedUp:       "recogido",
	enums.ShipmentStatusInTransit:      "en tránsito",
	enums.ShipmentStatusOutForDelivery: "en reparto",
	enums.ShipmentStatusDelivered:      "entregado",
}

func shipmentLabel(status enums.ShipmentStatus) string {
	if label, ok := shipmentLabels[status]; ok {
		return label
	}
	return status.String()
}

func stringPtr(value string) *string {
	return &value
}
