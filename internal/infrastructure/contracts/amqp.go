package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	UserID int64  `json:"userId"`
	Data   []byte `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventNotificationCreated   = "notification.created"
	EventBookingUpdated        = "booking.updated"
	EventSessionUpdated        = "session.updated"
	EventSessionRequestUpdated = "session_request.updated"
	EventRelayAudit            = "relay.audit"
)
