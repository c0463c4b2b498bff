package repository

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/persistence/db"
)

const dashboardQueryLimit = 50

// dashboardRepository assembles the initial dashboard snapshot and
// applies the two notification mutations clients can request over the
// socket. Everything else about these collections belongs to the
// platform backend.
type dashboardRepository struct {
	db *mongo.Database
}

func NewDashboardRepository(database *mongo.Database) *dashboardRepository {
	return &dashboardRepository{
		db: database,
	}
}

type dashboardSnapshot struct {
	Sessions      []domain.Session      `json:"sessions"`
	Bookings      []domain.Booking      `json:"bookings"`
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

func (r *dashboardRepository) Snapshot(ctx context.Context, userID int64) (json.RawMessage, error) {
	sessions, err := r.sessionsForMentor(ctx, userID)
	if err != nil {
		return nil, err
	}

	bookings, err := r.bookingsForLearner(ctx, userID)
	if err != nil {
		return nil, err
	}

	notifications, err := r.recentNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := r.db.Collection(db.NotificationsCollection).
		CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return nil, err
	}

	snapshot := dashboardSnapshot{
		Sessions:      sessions,
		Bookings:      bookings,
		Notifications: notifications,
		UnreadCount:   unread,
	}

	return json.Marshal(snapshot)
}

func (r *dashboardRepository) sessionsForMentor(ctx context.Context, userID int64) ([]domain.Session, error) {
	collection := r.db.Collection(db.SessionsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "schedule", Value: -1}}).
		SetLimit(dashboardQueryLimit)

	cursor, err := collection.Find(ctx, bson.M{"mentor_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *dashboardRepository) bookingsForLearner(ctx context.Context, userID int64) ([]domain.Booking, error) {
	collection := r.db.Collection(db.BookingsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(dashboardQueryLimit)

	cursor, err := collection.Find(ctx, bson.M{"learner_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []domain.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *dashboardRepository) recentNotifications(ctx context.Context, userID int64) ([]domain.Notification, error) {
	collection := r.db.Collection(db.NotificationsCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(dashboardQueryLimit)

	cursor, err := collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *dashboardRepository) MarkNotificationRead(ctx context.Context, userID int64, notificationID string) error {
	collection := r.db.Collection(db.NotificationsCollection)

	// Scoped to the requesting user so nobody flips someone else's flag.
	filter := bson.M{"_id": notificationID, "user_id": userID}
	update := bson.M{"$set": bson.M{"read": true}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

func (r *dashboardRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	collection := r.db.Collection(db.NotificationsCollection)

	filter := bson.M{"user_id": userID, "read": false}
	update := bson.M{"$set": bson.M{"read": true}}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}
