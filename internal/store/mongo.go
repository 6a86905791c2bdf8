package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nvelas/wanderlog/backend/internal/models"
)

// MongoStore handles journal entry CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("entries")}
}

func (s *MongoStore) Insert(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	entry.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("mongo insert: %w", err)
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)
	return entry, nil
}

// ListByAuthor returns the author's entries in creation order. The author
// field is a plain string, compared bytewise against userID.
func (s *MongoStore) ListByAuthor(ctx context.Context, userID string) ([]models.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"author": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var entry models.Entry
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Save overwrites the mutable fields of an existing entry. Coordinates,
// location, author and created_at are left untouched.
func (s *MongoStore) Save(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	_, err := s.col.UpdateByID(ctx, entry.ID, bson.M{"$set": bson.M{
		"headline":     entry.Headline,
		"journal_text": entry.JournalText,
		"photo":        entry.Photo,
	}})
	if err != nil {
		return nil, fmt.Errorf("mongo save: %w", err)
	}
	return entry, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = s.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
