package ws

import (
	"time"

	"github.com/openmentor/relay/internal/infrastructure/metrics"
)

// Presence broadcasts join, leave and end-of-session events derived from
// registry membership changes. Clients drive their roster UI from these,
// so the events must mirror the registry exactly: one join per successful
// join, one leave per actual removal, nothing for refused handshakes.
type Presence struct {
	registry *Registry
	now      func() time.Time
}

func NewPresence(registry *Registry) *Presence {
	return &Presence{
		registry: registry,
		now:      time.Now,
	}
}

// UserJoined announces a join to the whole room, the joiner included, so
// a client can confirm its own join without a separate ack frame.
func (n *Presence) UserJoined(p *Participant) int {
	event := NewUserJoin(p.Identity, n.now()).Encode()
	metrics.MessagesRelayed.WithLabelValues(string(EventUserJoin)).Inc()

	return n.registry.Broadcast(p.RoomCode, event, "")
}

// UserLeft announces a departure to whoever remains.
func (n *Presence) UserLeft(p *Participant) int {
	event := NewUserLeave(p.Identity, n.now()).Encode()
	metrics.MessagesRelayed.WithLabelValues(string(EventUserLeave)).Inc()

	return n.registry.Broadcast(p.RoomCode, event, "")
}

// SessionEnded announces the end of the session to the whole room,
// initiator included.
func (n *Presence) SessionEnded(p *Participant) int {
	event := NewSessionEnded(p.Identity, n.now()).Encode()
	metrics.MessagesRelayed.WithLabelValues(string(EventSessionEnded)).Inc()

	return n.registry.Broadcast(p.RoomCode, event, "")
}
