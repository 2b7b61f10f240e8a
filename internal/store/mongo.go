package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps the document under a fixed _id in a collection.
type MongoStore struct {
	coll *mongo.Collection
	id   string
}

func NewMongoStore(coll *mongo.Collection, id string) *MongoStore {
	return &MongoStore{coll: coll, id: id}
}

// Connect opens a client for uri. Callers disconnect it on shutdown.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(uri))
}

func (s *MongoStore) Latest(ctx context.Context, out any) error {
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) Replace(ctx context.Context, doc any) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.id}, doc, options.Replace().SetUpsert(true))
	return err
}
