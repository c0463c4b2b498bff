package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/persistence/db"
)

type relayAuditRepository struct {
	db *mongo.Database
}

func NewRelayAuditRepository(database *mongo.Database) domain.RelayAuditRepository {
	return &relayAuditRepository{
		db: database,
	}
}

func (r *relayAuditRepository) Record(ctx context.Context, ev *domain.RelayAuditEvent) error {
	collection := r.db.Collection(db.RelayAuditLogsCollection)

	_, err := collection.InsertOne(ctx, ev)
	return err
}

func (r *relayAuditRepository) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]domain.RelayAuditEvent, error) {
	collection := r.db.Collection(db.RelayAuditLogsCollection)

	filter := bson.M{"room_code": roomCode}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.RelayAuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *relayAuditRepository) GetByEventType(ctx context.Context, eventType domain.RelayEventType, from time.Time, to time.Time) ([]domain.RelayAuditEvent, error) {
	collection := r.db.Collection(db.RelayAuditLogsCollection)

	filter := bson.M{
		"event_type": eventType,
		"timestamp": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.RelayAuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *relayAuditRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.RelayAuditLogsCollection)

	filter := bson.M{
		"timestamp": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *relayAuditRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.RelayAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7776000), // 90 days TTL
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
