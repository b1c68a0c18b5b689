package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dbbs/pkg/domain"
)

var (
	ErrNotConnected = errors.New("mongo client not initialized")
	ErrNoResults    = errors.New("no parse results stored")
)

// ParseRecord is a stored parse result plus the key it was saved under.
type ParseRecord struct {
	Key     string    `bson:"key" json:"key"`
	SavedAt time.Time `bson:"saved_at" json:"savedAt"`

	domain.ParseResult `bson:",inline"`
}

// Client wraps the MongoDB client and the parse result collection.
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
	now         func() time.Time
}

// NewClient creates a new database client. Connection errors surface on Connect.
func NewClient(connectionString, databaseName, collectionName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return &Client{now: time.Now}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
		now:         time.Now,
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return ErrNotConnected
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

func (c *Client) Name() string {
	return "mongo"
}

// Save stores result keyed by its timestamp. Re-saving a timestamp replaces
// the earlier document.
func (c *Client) Save(ctx context.Context, key string, result *domain.ParseResult, _ []byte) error {
	return c.SaveParseResult(ctx, key, result)
}

// SaveParseResult upserts result using its timestamp as the unique identifier.
func (c *Client) SaveParseResult(ctx context.Context, key string, result *domain.ParseResult) error {
	if c.collection == nil {
		return ErrNotConnected
	}
	if result == nil || result.Timestamp == nil {
		return fmt.Errorf("save parse result %s: missing timestamp", key)
	}

	record := ParseRecord{
		Key:         key,
		SavedAt:     c.now().UTC(),
		ParseResult: *result,
	}
	filter := bson.M{"timestamp": *result.Timestamp}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert parse result %s: %w", key, err)
	}
	return nil
}

// LatestParseResult returns the most recently saved parse result.
func (c *Client) LatestParseResult(ctx context.Context) (*ParseRecord, error) {
	if c.collection == nil {
		return nil, ErrNotConnected
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "saved_at", Value: -1}})
	var record ParseRecord
	if err := c.collection.FindOne(ctx, bson.M{}, opts).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("find latest parse result: %w", err)
	}
	return &record, nil
}

// AllParseResults returns every stored result, oldest first.
func (c *Client) AllParseResults(ctx context.Context) ([]ParseRecord, error) {
	if c.collection == nil {
		return nil, ErrNotConnected
	}

	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: 1}})
	cursor, err := c.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query parse results: %w", err)
	}
	defer cursor.Close(ctx)

	var records []ParseRecord
	for cursor.Next(ctx) {
		var record ParseRecord
		if err := cursor.Decode(&record); err != nil {
			continue // skip documents from older layouts
		}
		if record.Timestamp != nil {
			records = append(records, record)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}
