package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository with one collection for sessions and
// one for participants.
type MongoRepository struct {
	sessions     *mongo.Collection
	participants *mongo.Collection
}

// NewMongoRepository ensures the indexes the single-session and
// single-participant guarantees rely on.
func NewMongoRepository(ctx context.Context, sessions, participants *mongo.Collection) (*MongoRepository, error) {
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "documentId", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}).
				SetName("one_active_session_per_document"),
		},
	})
	if err != nil {
		return nil, err
	}
	_, err = participants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepository{sessions: sessions, participants: participants}, nil
}

func (r *MongoRepository) FindOrCreateActive(ctx context.Context, documentID, createdBy string, at time.Time) (*Session, bool, error) {
	s, err := r.ActiveSession(ctx, documentID)
	if err != nil || s != nil {
		return s, false, err
	}
	s = &Session{
		ID:           uuid.NewString(),
		DocumentID:   documentID,
		CreatedBy:    createdBy,
		CreatedAt:    at,
		LastActivity: at,
		IsActive:     true,
	}
	if _, err := r.sessions.InsertOne(ctx, s); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
		// lost the race to a concurrent first join
		s, err = r.ActiveSession(ctx, documentID)
		if err != nil {
			return nil, false, err
		}
		if s == nil {
			return nil, false, errors.New("active session vanished after duplicate insert")
		}
		return s, false, nil
	}
	return s, true, nil
}

func (r *MongoRepository) ActiveSession(ctx context.Context, documentID string) (*Session, error) {
	var s Session
	if err := r.sessions.FindOne(ctx, bson.M{"documentId": documentID, "isActive": true}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.sessions.UpdateOne(ctx, bson.M{"id": sessionID}, bson.M{"$set": bson.M{"lastActivity": at}})
	return err
}

func (r *MongoRepository) UpsertParticipant(ctx context.Context, sessionID, userID string, cursor *int, at time.Time) (*Participant, error) {
	set := bson.M{"lastSeen": at, "isActive": true}
	if cursor != nil {
		set["cursor"] = *cursor
	}
	upd := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"id": uuid.NewString(), "joinedAt": at},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var p Participant
	filter := bson.M{"sessionId": sessionID, "userId": userID}
	if err := r.participants.FindOneAndUpdate(ctx, filter, upd, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) ActiveParticipants(ctx context.Context, sessionID string) ([]*Participant, error) {
	cur, err := r.participants.Find(ctx, bson.M{"sessionId": sessionID, "isActive": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*Participant
	for cur.Next(ctx) {
		var p Participant
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (r *MongoRepository) DeactivateStale(ctx context.Context, ids []string, cutoff time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.participants.UpdateMany(ctx,
		bson.M{"id": bson.M{"$in": ids}, "isActive": true, "lastSeen": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}
