package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/infrastructure/contracts"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/messaging"
)

// AuditPublisher forwards relay audit events onto the platform exchange
// so other services can react to them. Fire-and-forget: a broker hiccup
// is logged, never propagated to the connection path.
type AuditPublisher struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
}

func NewAuditPublisher(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *AuditPublisher {
	return &AuditPublisher{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

func (p *AuditPublisher) Record(_ context.Context, ev *domain.RelayAuditEvent) {
	go func() {
		data, err := json.Marshal(ev)
		if err != nil {
			p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to marshal audit event", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.rabbitmq.PublishMessage(ctx, contracts.EventRelayAudit, contracts.AmqpMessage{
			UserID: ev.UserID,
			Data:   data,
		}); err != nil {
			p.logger.Error(logging.RabbitMQ, logging.ExternalService, "failed to publish audit event", map[logging.ExtraKey]any{
				logging.RoomCode:     ev.RoomCode,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}
