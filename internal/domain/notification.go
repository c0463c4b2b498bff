package domain

import (
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a platform notification surfaced on the dashboard. The
// relay reads and flips the read flag; creation belongs to the platform
// backend.
type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    int64     `bson:"user_id" json:"userId"`
	Kind      string    `bson:"kind" json:"kind"`
	Message   string    `bson:"message" json:"message"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
