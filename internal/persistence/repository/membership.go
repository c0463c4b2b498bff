package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/persistence/db"
)

// membershipRepository answers "may this user join this room" from the
// booking system's collections. The mentor of a session may always join
// as host; a learner needs a confirmed booking.
type membershipRepository struct {
	db *mongo.Database
}

func NewMembershipRepository(database *mongo.Database) domain.Authorizer {
	return &membershipRepository{
		db: database,
	}
}

func (r *membershipRepository) Authorize(ctx context.Context, roomCode string, userID int64) (domain.Grant, error) {
	session, err := r.findSession(ctx, roomCode)
	if err != nil {
		return domain.Grant{}, err
	}

	if session.Status == domain.SessionCancelled {
		return domain.Grant{}, domain.ErrNotAuthorized
	}

	if session.MentorID == userID {
		return domain.Grant{
			Allowed:     true,
			Role:        domain.RoleHost,
			DisplayName: r.displayName(ctx, userID),
		}, nil
	}

	confirmed, err := r.hasConfirmedBooking(ctx, session.ID, userID)
	if err != nil {
		return domain.Grant{}, err
	}
	if !confirmed {
		return domain.Grant{}, domain.ErrNotAuthorized
	}

	return domain.Grant{
		Allowed:     true,
		Role:        domain.RoleParticipant,
		DisplayName: r.displayName(ctx, userID),
	}, nil
}

func (r *membershipRepository) findSession(ctx context.Context, roomCode string) (*domain.Session, error) {
	collection := r.db.Collection(db.SessionsCollection)

	var session domain.Session
	err := collection.FindOne(ctx, bson.M{"room_code": roomCode}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *membershipRepository) hasConfirmedBooking(ctx context.Context, sessionID string, userID int64) (bool, error) {
	collection := r.db.Collection(db.BookingsCollection)

	filter := bson.M{
		"session_id": sessionID,
		"learner_id": userID,
		"status":     domain.BookingConfirmed,
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// displayName is best effort; the relay falls back to a generated name
// when the user record is missing.
func (r *membershipRepository) displayName(ctx context.Context, userID int64) string {
	name, err := NewUserRepository(r.db).DisplayName(ctx, userID)
	if err != nil {
		return ""
	}
	return name
}

type userRepository struct {
	db *mongo.Database
}

func NewUserRepository(database *mongo.Database) domain.IdentityStore {
	return &userRepository{
		db: database,
	}
}

type userDoc struct {
	ID       int64  `bson:"_id"`
	Username string `bson:"username"`
	FullName string `bson:"full_name"`
}

func (r *userRepository) DisplayName(ctx context.Context, userID int64) (string, error) {
	collection := r.db.Collection(db.UsersCollection)

	var user userDoc
	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", domain.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	if user.FullName != "" {
		return user.FullName, nil
	}

	return user.Username, nil
}
