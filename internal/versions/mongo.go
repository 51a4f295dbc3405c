package versions

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores versions in one collection. A unique compound index
// on (documentId, versionNumber) turns a numbering race into a duplicate-key
// error that the service retries.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "versionNumber", Value: -1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) Insert(ctx context.Context, v *Version) error {
	if _, err := r.col.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateVersion
		}
		return err
	}
	return nil
}

func (r *MongoRepository) MaxNumber(ctx context.Context, documentID string) (int, error) {
	v, err := r.findOne(ctx, bson.M{"documentId": documentID})
	if err != nil || v == nil {
		return 0, err
	}
	return v.VersionNumber, nil
}

func (r *MongoRepository) Before(ctx context.Context, documentID string, n int) (*Version, error) {
	return r.findOne(ctx, bson.M{"documentId": documentID, "versionNumber": bson.M{"$lt": n}})
}

// findOne returns the highest-numbered version matching filter, nil when none.
func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Version, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "versionNumber", Value: -1}})
	var v Version
	if err := r.col.FindOne(ctx, filter, opts).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Version, error) {
	var v Version
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *MongoRepository) ListByDocument(ctx context.Context, documentID string) ([]*Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "versionNumber", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Version{}
	for cur.Next(ctx) {
		var v Version
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
