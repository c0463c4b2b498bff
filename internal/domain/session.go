package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotAuthorized    = errors.New("not authorized to join session")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUserNotFound     = errors.New("user not found")
)

// Role is the capacity a participant holds inside a live session room.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Session statuses as stored by the owning platform.
const (
	SessionScheduled = "scheduled"
	SessionLive      = "live"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Booking statuses. Only a confirmed booking entitles a learner to join.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Session is the booking system's record of a mentoring session. The relay
// reads it only to answer "may this user join this room".
type Session struct {
	ID       string    `bson:"_id" json:"id"`
	RoomCode string    `bson:"room_code" json:"roomCode"`
	MentorID int64     `bson:"mentor_id" json:"mentorId"`
	Title    string    `bson:"title" json:"title"`
	Status   string    `bson:"status" json:"status"`
	Schedule time.Time `bson:"schedule" json:"schedule"`
}

// Booking links a learner to a session.
type Booking struct {
	ID        string    `bson:"_id" json:"id"`
	SessionID string    `bson:"session_id" json:"sessionId"`
	LearnerID int64     `bson:"learner_id" json:"learnerId"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Grant is the answer of the membership authority for a (room, user) pair.
type Grant struct {
	Allowed     bool
	Role        Role
	DisplayName string
}

// Authorizer is the membership authority consulted on every connection
// attempt. Implementations must be side-effect free.
type Authorizer interface {
	Authorize(ctx context.Context, roomCode string, userID int64) (Grant, error)
}

// IdentityStore resolves a user identity to a display name.
type IdentityStore interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}
