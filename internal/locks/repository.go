package locks

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores lock rows.
type Repository interface {
	Insert(ctx context.Context, l *Lock) error
	ActiveBySession(ctx context.Context, sessionID string) ([]*Lock, error)
	// DeactivateExpired marks the given locks inactive if they were created
	// before cutoff and returns how many changed.
	DeactivateExpired(ctx context.Context, ids []string, cutoff time.Time) (int, error)
}

// MemoryRepository keeps locks in process.
type MemoryRepository struct {
	mu    sync.Mutex
	locks map[string]*Lock
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{locks: map[string]*Lock{}}
}

func (m *MemoryRepository) Insert(_ context.Context, l *Lock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.locks[l.ID] = &cp
	return nil
}

func (m *MemoryRepository) ActiveBySession(_ context.Context, sessionID string) ([]*Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Lock
	for _, l := range m.locks {
		if l.SessionID == sessionID && l.IsActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepository) DeactivateExpired(_ context.Context, ids []string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if l, ok := m.locks[id]; ok && l.IsActive && l.CreatedAt.Before(cutoff) {
			l.IsActive = false
			n++
		}
	}
	return n, nil
}

// MongoRepository implements Repository on a Mongo collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "isActive", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) Insert(ctx context.Context, l *Lock) error {
	_, err := r.col.InsertOne(ctx, l)
	return err
}

func (r *MongoRepository) ActiveBySession(ctx context.Context, sessionID string) ([]*Lock, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"sessionId": sessionID, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*Lock
	for cur.Next(ctx) {
		var l Lock
		if err := cur.Decode(&l); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, cur.Err()
}

func (r *MongoRepository) DeactivateExpired(ctx context.Context, ids []string, cutoff time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.col.UpdateMany(ctx,
		bson.M{"id": bson.M{"$in": ids}, "isActive": true, "createdAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}
