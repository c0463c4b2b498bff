package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Participant is one live connection inside a room. A user reconnecting
// gets a fresh Participant with a fresh connection ID, so two tabs of the
// same user coexist without clobbering each other.
type Participant struct {
	ID       string
	Identity Identity
	RoomCode string

	conn Conn
	send chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

func NewParticipant(roomCode string, id Identity, conn Conn, sendBuffer int) *Participant {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &Participant{
		ID:       uuid.NewString(),
		Identity: id,
		RoomCode: roomCode,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump. A full buffer means the client
// stopped draining; the participant is shut down rather than letting one
// slow reader stall the room.
func (p *Participant) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.send <- data:
		return true
	default:
		p.shutdown()
		return false
	}
}

// shutdown stops the write pump. Safe to call from any goroutine, any
// number of times.
func (p *Participant) shutdown() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// Done is closed once the participant is shutting down.
func (p *Participant) Done() <-chan struct{} {
	return p.done
}

// writePump owns all writes to the connection: queued frames plus the
// protocol-level heartbeat ping. Returns when the participant is shut
// down or a write fails.
func (p *Participant) writePump(heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case data := <-p.send:
			if err := p.conn.Send(data); err != nil {
				p.shutdown()
				return
			}

		case <-ticker.C:
			if err := p.conn.Ping(time.Now().Add(writeWait)); err != nil {
				p.shutdown()
				return
			}

		case <-p.done:
			return
		}
	}
}
