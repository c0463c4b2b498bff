package ws

import (
	"errors"
	"sync"

	"github.com/openmentor/relay/internal/infrastructure/metrics"
)

var ErrRoomEnding = errors.New("room is ending")

type room struct {
	code         string
	participants map[string]*Participant // keyed by connection ID
	ending       bool
}

// Registry tracks which rooms exist and who is connected to each. Rooms
// are created on first join and evicted as soon as the last participant
// leaves; there is no persistent room state here.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
	}
}

// Join adds the participant to the room, creating it if needed. Joining a
// room that is in its end-of-session grace period is refused.
func (reg *Registry) Join(p *Participant) (int, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[p.RoomCode]
	if !ok {
		rm = &room{
			code:         p.RoomCode,
			participants: make(map[string]*Participant),
		}
		reg.rooms[p.RoomCode] = rm
		metrics.OpenRooms.Inc()
	}

	if rm.ending {
		return 0, ErrRoomEnding
	}

	rm.participants[p.ID] = p
	metrics.OpenRoomConnections.Inc()

	return len(rm.participants), nil
}

// Leave removes the participant. The second return reports whether this
// call actually removed it, so double leaves (read error racing an evict)
// collapse into one presence event.
func (reg *Registry) Leave(p *Participant) (int, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[p.RoomCode]
	if !ok {
		return 0, false
	}

	if _, ok := rm.participants[p.ID]; !ok {
		return len(rm.participants), false
	}

	delete(rm.participants, p.ID)
	metrics.OpenRoomConnections.Dec()

	remaining := len(rm.participants)
	if remaining == 0 {
		delete(reg.rooms, rm.code)
		metrics.OpenRooms.Dec()
	}

	return remaining, true
}

// Broadcast fans data out to every participant in the room except the
// connection named by excludeID (empty string excludes no one). Returns
// how many sends were queued.
func (reg *Registry) Broadcast(roomCode string, data []byte, excludeID string) int {
	reg.mu.RLock()
	rm, ok := reg.rooms[roomCode]
	if !ok {
		reg.mu.RUnlock()
		return 0
	}

	targets := make([]*Participant, 0, len(rm.participants))
	for _, p := range rm.participants {
		if p.ID == excludeID {
			continue
		}
		targets = append(targets, p)
	}
	reg.mu.RUnlock()

	delivered := 0
	for _, p := range targets {
		if p.enqueue(data) {
			delivered++
		} else {
			metrics.DeliveryFailures.Inc()
		}
	}

	return delivered
}

// SendTo queues data for every connection the given user holds in the
// room. Returns false when the user has none.
func (reg *Registry) SendTo(roomCode string, userID int64, data []byte) bool {
	reg.mu.RLock()
	rm, ok := reg.rooms[roomCode]
	if !ok {
		reg.mu.RUnlock()
		return false
	}

	var targets []*Participant
	for _, p := range rm.participants {
		if p.Identity.UserID == userID {
			targets = append(targets, p)
		}
	}
	reg.mu.RUnlock()

	for _, p := range targets {
		if !p.enqueue(data) {
			metrics.DeliveryFailures.Inc()
		}
	}

	return len(targets) > 0
}

// MarkEnding flags the room so new joins are refused, and returns the
// participants present at that moment.
func (reg *Registry) MarkEnding(roomCode string) []*Participant {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[roomCode]
	if !ok {
		return nil
	}

	rm.ending = true

	present := make([]*Participant, 0, len(rm.participants))
	for _, p := range rm.participants {
		present = append(present, p)
	}

	return present
}

// Evict drops the whole room and returns whoever was still connected.
// Their leave paths become no-ops afterwards.
func (reg *Registry) Evict(roomCode string) []*Participant {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[roomCode]
	if !ok {
		return nil
	}

	delete(reg.rooms, roomCode)
	metrics.OpenRooms.Dec()

	evicted := make([]*Participant, 0, len(rm.participants))
	for _, p := range rm.participants {
		evicted = append(evicted, p)
		metrics.OpenRoomConnections.Dec()
	}

	return evicted
}

// Snapshot returns the identities currently in the room.
func (reg *Registry) Snapshot(roomCode string) []Identity {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[roomCode]
	if !ok {
		return nil
	}

	identities := make([]Identity, 0, len(rm.participants))
	for _, p := range rm.participants {
		identities = append(identities, p.Identity)
	}

	return identities
}

// Rooms reports how many rooms currently hold at least one participant.
func (reg *Registry) Rooms() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// Participants reports the total connection count across all rooms.
func (reg *Registry) Participants() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	total := 0
	for _, rm := range reg.rooms {
		total += len(rm.participants)
	}

	return total
}
