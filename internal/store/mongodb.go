// internal/store/mongodb.go
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadscape/leadminer/pkg/types"
)

// MongoSinkOptions configures the MongoDB sink.
type MongoSinkOptions struct {
	URI        string        `yaml:"uri" json:"uri"`
	Database   string        `yaml:"database" json:"database"`
	Collection string        `yaml:"collection" json:"collection"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// MongoSink upserts leads into a MongoDB collection keyed by profile URL.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	options    MongoSinkOptions
}

// NewMongoSink connects to MongoDB and prepares the collection.
func NewMongoSink(opts MongoSinkOptions) (*MongoSink, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("MongoDB URI is required")
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("MongoDB database name is required")
	}
	if opts.Collection == "" {
		opts.Collection = "leads"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(opts.Database).Collection(opts.Collection)

	// Unique index on the de-duplication key.
	indexCtx, indexCancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer indexCancel()
	_, err = collection.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "profile_url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoSink{client: client, collection: collection, options: opts}, nil
}

func (s *MongoSink) Name() string {
	return fmt.Sprintf("mongodb:%s.%s", s.options.Database, s.options.Collection)
}

// Export upserts the batch as one bulk write.
func (s *MongoSink) Export(ctx context.Context, leads []types.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(leads))
	for _, lead := range leads {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"profile_url": lead.ProfileURL}).
			SetUpdate(bson.M{"$set": lead.ToRecord()}).
			SetUpsert(true))
	}

	opCtx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()
	if _, err := s.collection.BulkWrite(opCtx, models); err != nil {
		return fmt.Errorf("bulk write failed: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.options.Timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
