package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/safe-route/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccidentCollection is the collection name for accident samples.
const AccidentCollection = "accidents"

// ConnectMongo connects to MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoAccidentStore wraps a MongoDB collection of accident samples.
type MongoAccidentStore struct {
	Collection *mongo.Collection
}

// NewMongoAccidentStore returns the store backed by dbName.accidents.
func NewMongoAccidentStore(client *mongo.Client, dbName string) *MongoAccidentStore {
	return &MongoAccidentStore{Collection: client.Database(dbName).Collection(AccidentCollection)}
}

// LoadAccidents reads every sample in the collection.
func (c *MongoAccidentStore) LoadAccidents(ctx context.Context) ([]models.Accident, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find accidents: %w", err)
	}
	defer cursor.Close(ctx)

	var accidents []models.Accident
	if err := cursor.All(ctx, &accidents); err != nil {
		return nil, fmt.Errorf("decode accidents: %w", err)
	}
	return accidents, nil
}

// InsertAccidents inserts samples into the collection.
func (c *MongoAccidentStore) InsertAccidents(ctx context.Context, accidents []models.Accident) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(accidents) == 0 {
		return nil
	}
	docs := make([]interface{}, len(accidents))
	for i, a := range accidents {
		docs[i] = a
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// DeleteAll deletes all samples from the collection.
func (c *MongoAccidentStore) DeleteAll(ctx context.Context) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{})
	return err
}
