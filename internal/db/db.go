// Package db manages MongoDB connections and collections.
package db

import (
	"context" // For connection timeout/cancellation
	"fmt"     // Error formatting
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Index key documents
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "mindcare"

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, can be reused)
	client *mongo.Client

	// db is the application database; "users" and "conversations" live here
	db *mongo.Database
}

// New connects to MongoDB and returns a Client bound to the named database.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	if database == "" {
		database = DefaultDatabase
	}

	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	// This doesn't actually connect yet, just creates the client
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping is the actual connection test; give it 5 seconds
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// ConversationsCollection returns the conversations collection.
func (c *Client) ConversationsCollection() *mongo.Collection {
	return c.db.Collection("conversations")
}

// Ping checks the primary is reachable (used by the health endpoint).
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates necessary indexes for users and conversations collections.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// ===== USERS COLLECTION INDEX =====
	// Unique email: prevents duplicate registration, backs GetUserByEmail()
	usersIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndexModel); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// ===== CONVERSATIONS COLLECTION INDEXES =====
	conversationIndexes := []mongo.IndexModel{
		{
			// At most one active conversation per user. The partial filter keeps
			// ended conversations out of the uniqueness check.
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_active_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_active", Value: true}}),
		},
		{
			// Read receipts look up a message by id within the user's conversations
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "messages._id", Value: 1}},
		},
		{
			// History listings, newest first
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "last_activity", Value: -1}},
		},
	}

	if _, err := c.ConversationsCollection().Indexes().CreateMany(ctx, conversationIndexes); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	return nil
}

// Drop removes both collections (tests and local resets only).
func (c *Client) Drop(ctx context.Context) error {
	if err := c.UsersCollection().Drop(ctx); err != nil {
		return err
	}
	return c.ConversationsCollection().Drop(ctx)
}
