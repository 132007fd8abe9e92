package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	return &MongoStore{collection: db.Collection(collectionName)}
}

func (s *MongoStore) List(ctx context.Context) ([]models.Checkin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find checkins: %w", err)
	}
	defer cursor.Close(ctx)

	checkins := []models.Checkin{}
	if err := cursor.All(ctx, &checkins); err != nil {
		return nil, fmt.Errorf("decode checkins: %w", err)
	}
	for i := range checkins {
		checkins[i].Timestamp = checkins[i].Timestamp.UTC()
	}
	return checkins, nil
}

func (s *MongoStore) Create(ctx context.Context, c models.Checkin) (models.Checkin, error) {
	// BSON datetimes carry millisecond precision
	c.Timestamp = c.Timestamp.UTC().Truncate(time.Millisecond)
	if _, err := s.collection.InsertOne(ctx, c); err != nil {
		return models.Checkin{}, fmt.Errorf("insert checkin: %w", err)
	}
	return c, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, p models.CheckinPatch) (models.Checkin, error) {
	filter := bson.M{"_id": id}

	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Contact != nil {
		set["contact"] = *p.Contact
	}
	if p.Guests != nil {
		set["guests"] = *p.Guests
	}
	if p.IsNew != nil {
		set["isNew"] = *p.IsNew
	}

	var result *mongo.SingleResult
	if len(set) == 0 {
		result = s.collection.FindOne(ctx, filter)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		result = s.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts)
	}

	var updated models.Checkin
	if err := result.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Checkin{}, ErrNotFound
		}
		return models.Checkin{}, fmt.Errorf("update checkin %s: %w", id, err)
	}
	updated.Timestamp = updated.Timestamp.UTC()
	return updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete checkin %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear checkins: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	return s.collection.Database().Client().Disconnect(context.Background())
}
