package ws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/metrics"
)

// Relay wires the registry, the membership authority and the presence
// notifier into the connection lifecycle: authorize on handshake, fan
// frames out while the connection lives, announce the departure when it
// dies.
type Relay struct {
	registry *Registry
	presence *Presence
	auth     domain.Authorizer
	sink     domain.EventSink
	logger   logging.Logger
	cfg      configs.RelayConfig
}

func NewRelay(
	registry *Registry,
	auth domain.Authorizer,
	sink domain.EventSink,
	logger logging.Logger,
	cfg configs.RelayConfig,
) *Relay {
	return &Relay{
		registry: registry,
		presence: NewPresence(registry),
		auth:     auth,
		sink:     sink,
		logger:   logger,
		cfg:      cfg,
	}
}

// Join authorizes the user against the room and registers the connection.
// On refusal the connection is closed with the matching application code
// and an error is returned; the caller has nothing left to do.
func (r *Relay) Join(ctx context.Context, roomCode string, userID int64, conn Conn) (*Participant, error) {
	if userID == 0 {
		r.refuse(conn, roomCode, userID, CloseNotAuthenticated, "not authenticated", "not_authenticated")
		return nil, domain.ErrNotAuthenticated
	}

	authCtx, cancel := context.WithTimeout(ctx, r.cfg.AuthorizeTimeout)
	defer cancel()

	grant, err := r.auth.Authorize(authCtx, roomCode, userID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		r.refuse(conn, roomCode, userID, CloseRoomNotFound, "session not found", "room_not_found")
		return nil, err
	case errors.Is(err, domain.ErrNotAuthorized):
		r.refuse(conn, roomCode, userID, CloseNotMember, "not a member of this session", "not_member")
		return nil, err
	case err != nil:
		r.logger.Error(logging.WebSocket, logging.Authorize, "membership lookup failed", map[logging.ExtraKey]any{
			logging.RoomCode:     roomCode,
			logging.UserId:       userID,
			logging.ErrorMessage: err.Error(),
		})
		r.refuse(conn, roomCode, userID, CloseInternalError, "internal error", "internal")
		return nil, err
	case !grant.Allowed:
		r.refuse(conn, roomCode, userID, CloseNotMember, "not a member of this session", "not_member")
		return nil, domain.ErrNotAuthorized
	}

	identity := Identity{
		UserID:   userID,
		Username: grant.DisplayName,
		Role:     grant.Role,
	}
	if identity.Username == "" {
		identity.Username = fmt.Sprintf("user-%d", userID)
	}

	p := NewParticipant(roomCode, identity, conn, r.cfg.SendBuffer)

	count, err := r.registry.Join(p)
	if err != nil {
		r.refuse(conn, roomCode, userID, CloseRoomEnded, "session has ended", "room_ended")
		return nil, err
	}

	r.logger.Info(logging.WebSocket, logging.Handshake, "participant joined", map[logging.ExtraKey]any{
		logging.RoomCode: roomCode,
		logging.UserId:   userID,
	})

	r.sink.Record(ctx, domain.NewUserJoinedEvent(roomCode, userID, identity.Role, count))
	r.presence.UserJoined(p)

	return p, nil
}

// Serve runs the connection until it dies, then announces the departure.
// Blocks; call from the HTTP handler goroutine.
func (r *Relay) Serve(p *Participant, conn *websocket.Conn) {
	go p.writePump(r.cfg.HeartbeatInterval)

	// Reading is the only way to notice the write pump gave up.
	go func() {
		<-p.Done()
		_ = conn.Close()
	}()

	conn.SetReadLimit(r.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		// Any inbound frame counts as liveness, not just protocol pongs.
		_ = conn.SetReadDeadline(time.Now().Add(r.cfg.PongWait))

		r.Dispatch(p, raw)
	}

	r.Leave(p)
}

// Dispatch routes one inbound frame. Malformed frames produce an error
// reply to the sender only; the room never sees them.
func (r *Relay) Dispatch(p *Participant, raw []byte) {
	frame, err := ParseInbound(raw)
	if err != nil {
		metrics.MalformedMessages.Inc()
		r.logger.Debug(logging.WebSocket, logging.Relay, "dropping malformed frame", map[logging.ExtraKey]any{
			logging.RoomCode:     p.RoomCode,
			logging.UserId:       p.Identity.UserID,
			logging.ErrorMessage: err.Error(),
		})
		p.enqueue(NewErrorEvent("malformed_message", err.Error()).Encode())
		return
	}

	switch f := frame.(type) {
	case *SignalFrame:
		r.relaySignal(p, f)

	case *ChatFrame:
		event := NewChatMessage(p.Identity, f.Content, time.Now()).Encode()
		metrics.MessagesRelayed.WithLabelValues(string(EventChatMessage)).Inc()
		r.registry.Broadcast(p.RoomCode, event, p.ID)

	case *MediaStatusFrame:
		event := NewMediaStatus(p.Identity, f.AudioEnabled, f.VideoEnabled, time.Now()).Encode()
		metrics.MessagesRelayed.WithLabelValues(string(EventMediaStatus)).Inc()
		r.registry.Broadcast(p.RoomCode, event, p.ID)

	case *AnnounceFrame:
		r.presence.UserJoined(p)

	case *EndSessionFrame:
		r.endSession(p)

	case *PingFrame:
		p.enqueue(NewPong(time.Now()).Encode())

	case *PongFrame:
		// Liveness already refreshed by the read loop.
	}
}

// relaySignal forwards a negotiation payload, stamped with the sender's
// server-side identity. With a target it goes to that user's connections
// only; otherwise to everyone else in the room.
func (r *Relay) relaySignal(p *Participant, f *SignalFrame) {
	stamped, err := f.Stamp(p.Identity, time.Now())
	if err != nil {
		metrics.MalformedMessages.Inc()
		p.enqueue(NewErrorEvent("malformed_message", "unencodable payload").Encode())
		return
	}

	metrics.MessagesRelayed.WithLabelValues(string(f.Kind)).Inc()

	if f.Target != 0 {
		if !r.registry.SendTo(p.RoomCode, f.Target, stamped) {
			p.enqueue(NewErrorEvent("target_not_found", "target user is not in the room").Encode())
		}
		return
	}

	r.registry.Broadcast(p.RoomCode, stamped, p.ID)
}

// endSession is the host ending the room for everyone: announce, refuse
// new joins, then force-close whoever lingers past the grace period.
func (r *Relay) endSession(p *Participant) {
	if p.Identity.Role != domain.RoleHost {
		p.enqueue(NewErrorEvent("not_host", "only the host can end the session").Encode())
		return
	}

	r.presence.SessionEnded(p)

	present := r.registry.MarkEnding(p.RoomCode)
	if present == nil {
		return
	}

	r.logger.Info(logging.WebSocket, logging.Presence, "session ended by host", map[logging.ExtraKey]any{
		logging.RoomCode: p.RoomCode,
		logging.UserId:   p.Identity.UserID,
	})
	r.sink.Record(context.Background(), domain.NewSessionEndedEvent(p.RoomCode, p.Identity.UserID, len(present)))

	roomCode := p.RoomCode
	time.AfterFunc(r.cfg.EndGracePeriod, func() {
		r.teardown(roomCode)
	})
}

// teardown evicts the room after the grace period. Participants who left
// on their own in the meantime are already gone from the registry, so
// their leave paths stay single-fire.
func (r *Relay) teardown(roomCode string) {
	evicted := r.registry.Evict(roomCode)
	if evicted == nil {
		return
	}

	for _, p := range evicted {
		p.shutdown()
		_ = p.conn.Close(CloseRoomEnded, "session ended")
	}

	r.logger.Info(logging.Registry, logging.Presence, "room evicted", map[logging.ExtraKey]any{
		logging.RoomCode: roomCode,
	})
	r.sink.Record(context.Background(), domain.NewRoomEvictedEvent(roomCode, "session_ended"))
}

// Leave removes the participant and announces the departure. Idempotent:
// a read error racing an end-of-session evict announces nothing twice.
func (r *Relay) Leave(p *Participant) {
	remaining, removed := r.registry.Leave(p)

	p.shutdown()

	if !removed {
		return
	}

	r.presence.UserLeft(p)

	r.logger.Info(logging.WebSocket, logging.Presence, "participant left", map[logging.ExtraKey]any{
		logging.RoomCode: p.RoomCode,
		logging.UserId:   p.Identity.UserID,
	})
	r.sink.Record(context.Background(), domain.NewUserLeftEvent(p.RoomCode, p.Identity.UserID, remaining))
}

// Snapshot exposes the current roster for the presence endpoint.
func (r *Relay) Snapshot(roomCode string) []Identity {
	return r.registry.Snapshot(roomCode)
}

func (r *Relay) refuse(conn Conn, roomCode string, userID int64, code int, reason, metric string) {
	metrics.JoinsRefused.WithLabelValues(metric).Inc()

	r.logger.Warn(logging.WebSocket, logging.Handshake, "join refused", map[logging.ExtraKey]any{
		logging.RoomCode:  roomCode,
		logging.UserId:    userID,
		logging.CloseCode: code,
	})

	r.sink.Record(context.Background(), domain.NewJoinRefusedEvent(roomCode, userID, metric))

	_ = conn.Close(code, reason)
}
