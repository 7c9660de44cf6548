package services

import (
	"context"
	"errors"
	"fmt"

	"document-chat-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDocumentNotFound is returned when a query references a document
// name that was never indexed.
var ErrDocumentNotFound = errors.New("document index not found")

// IndexStore persists the document name to vector index mapping.
type IndexStore interface {
	Put(ctx context.Context, rec models.DocumentIndex) error
	Get(ctx context.Context, name string) (*models.DocumentIndex, error)
}

// MongoIndexStore keeps the mapping in the document_indices collection,
// keyed by document name. Re-indexing overwrites; nothing is ever deleted.
type MongoIndexStore struct {
	collection *mongo.Collection
}

func NewMongoIndexStore(db *mongo.Database) *MongoIndexStore {
	return &MongoIndexStore{
		collection: db.Collection("document_indices"),
	}
}

func (s *MongoIndexStore) Put(ctx context.Context, rec models.DocumentIndex) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"name": rec.Name},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to persist index mapping for %q: %w", rec.Name, err)
	}
	return nil
}

func (s *MongoIndexStore) Get(ctx context.Context, name string) (*models.DocumentIndex, error) {
	var rec models.DocumentIndex
	err := s.collection.FindOne(ctx, bson.M{"name": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up index mapping for %q: %w", name, err)
	}
	return &rec, nil
}
