package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/openmentor/relay/internal/infrastructure/contracts"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/messaging"
	"github.com/openmentor/relay/internal/infrastructure/ws"
)

// DashboardConsumer drains the dashboard queue and pushes each update to
// the target user's open dashboard connections. A user with none online
// is a no-op; the platform backend owns durable notification state.
type DashboardConsumer struct {
	rabbitmq  *messaging.RabbitMQ
	dashboard *ws.Dashboard
	logger    logging.Logger
}

func NewDashboardConsumer(rabbitmq *messaging.RabbitMQ, dashboard *ws.Dashboard, logger logging.Logger) *DashboardConsumer {
	return &DashboardConsumer{
		rabbitmq:  rabbitmq,
		dashboard: dashboard,
		logger:    logger,
	}
}

func (c *DashboardConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.DashboardQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.FanOut, "failed to unmarshal message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var payload messaging.DashboardEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.FanOut, "failed to unmarshal event data", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var event *ws.DashboardEvent
		switch msg.RoutingKey {
		case contracts.EventSessionUpdated:
			event = ws.NewSessionUpdate(payload.Payload, payload.Action)
		case contracts.EventBookingUpdated:
			event = ws.NewBookingUpdate(payload.Payload, payload.Action)
		case contracts.EventNotificationCreated:
			event = ws.NewNotification(payload.Payload)
		case contracts.EventSessionRequestUpdated:
			event = ws.NewSessionRequestUpdate(payload.Payload, payload.Action)
		default:
			// Ack and move on; an unknown key is a producer-side version skew,
			// not something redelivery fixes.
			c.logger.Warn(logging.RabbitMQ, logging.FanOut, "unknown routing key", map[logging.ExtraKey]any{
				logging.MessageType: msg.RoutingKey,
			})
			return nil
		}

		c.dashboard.Publish(message.UserID, event)

		return nil
	})
}
