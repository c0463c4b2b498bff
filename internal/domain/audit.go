package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RelayEventType string

const (
	EventUserJoined   RelayEventType = "user_joined"
	EventUserLeft     RelayEventType = "user_left"
	EventJoinRefused  RelayEventType = "join_refused"
	EventSessionEnded RelayEventType = "session_ended"
	EventRoomEvicted  RelayEventType = "room_evicted"
)

// RelayAuditEvent is an append-only record of something the relay observed.
// Recording is fire-and-forget; the relay never blocks on the sink.
type RelayAuditEvent struct {
	ID        string         `bson:"_id" json:"id"`
	RoomCode  string         `bson:"room_code" json:"roomCode"`
	EventType RelayEventType `bson:"event_type" json:"eventType"`
	UserID    int64          `bson:"user_id,omitempty" json:"userId,omitempty"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RelayAuditRepository interface {
	Record(ctx context.Context, ev *RelayAuditEvent) error
	GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]RelayAuditEvent, error)
	GetByEventType(ctx context.Context, eventType RelayEventType, from, to time.Time) ([]RelayAuditEvent, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

// EventSink receives relay audit events. Implementations must not block the
// caller; failures are logged, never surfaced to participants.
type EventSink interface {
	Record(ctx context.Context, ev *RelayAuditEvent)
}

func NewUserJoinedEvent(roomCode string, userID int64, role Role, participants int) *RelayAuditEvent {
	return &RelayAuditEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventUserJoined,
		UserID:    userID,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"role":         string(role),
			"participants": participants,
		},
	}
}

func NewUserLeftEvent(roomCode string, userID int64, participants int) *RelayAuditEvent {
	return &RelayAuditEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventUserLeft,
		UserID:    userID,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"participants": participants,
		},
	}
}

func NewJoinRefusedEvent(roomCode string, userID int64, reason string) *RelayAuditEvent {
	return &RelayAuditEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventJoinRefused,
		UserID:    userID,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"reason": reason,
		},
	}
}

func NewSessionEndedEvent(roomCode string, hostID int64, participants int) *RelayAuditEvent {
	return &RelayAuditEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventSessionEnded,
		UserID:    hostID,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"participants": participants,
		},
	}
}

func NewRoomEvictedEvent(roomCode string, reason string) *RelayAuditEvent {
	return &RelayAuditEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		EventType: EventRoomEvicted,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"reason": reason,
		},
	}
}
