package messaging

import "encoding/json"

const (
	DashboardQueue  = "relay.dashboard"
	AuditQueue      = "relay.audit"
	DeadLetterQueue = "dead_letter_queue"
)

// DashboardEventData wraps an entity payload published by the platform
// backend. The routing key says what kind of entity it is; Action says
// what happened to it.
type DashboardEventData struct {
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload"`
}
