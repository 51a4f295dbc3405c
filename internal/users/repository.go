package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/promptshare/promptshare/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	// GetBySubs returns the known users among subs; unknown subs are simply absent.
	GetBySubs(ctx context.Context, subs []string) ([]*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.UpdatedAt = now

	filter := bson.M{"sub": u.Sub}
	upd := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"name":      u.Name,
			"updatedAt": u.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, upd, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Shouldn't happen because of upsert, but handle gracefully
			return u, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetBySubs(ctx context.Context, subs []string) ([]*models.User, error) {
	if len(subs) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"sub": bson.M{"$in": subs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

// MemoryUserRepository keeps users in process for development and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: map[string]models.User{}}
}

func (m *MemoryUserRepository) UpsertBySub(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	stored, ok := m.bySub[u.Sub]
	if !ok {
		stored = models.User{ID: uuid.NewString(), Sub: u.Sub, CreatedAt: now}
	}
	stored.Email = u.Email
	stored.Name = u.Name
	stored.UpdatedAt = now
	m.bySub[u.Sub] = stored
	out := stored
	return &out, nil
}

func (m *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.bySub[sub]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryUserRepository) GetBySubs(_ context.Context, subs []string) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.User
	for _, sub := range subs {
		if u, ok := m.bySub[sub]; ok {
			u := u
			out = append(out, &u)
		}
	}
	return out, nil
}
