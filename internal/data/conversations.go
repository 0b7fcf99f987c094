package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConversationsStore persists whole conversation documents.
type ConversationsStore struct {
	// coll is reference to "conversations" collection in MongoDB
	coll *mongo.Collection
}

// NewConversationsStore returns a ConversationsStore using given collection.
func NewConversationsStore(coll *mongo.Collection) *ConversationsStore {
	return &ConversationsStore{coll: coll}
}

// FindActive returns the user's active conversation, or ErrNotFound.
func (s *ConversationsStore) FindActive(ctx context.Context, userID bson.ObjectID) (*Conversation, error) {
	var conv Conversation

	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "is_active": true}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("active conversation %w", ErrNotFound)
		}
		return nil, err
	}

	// Documents written by older clients may lack the array entirely
	if conv.Messages == nil {
		conv.Messages = []Message{}
	}
	return &conv, nil
}

// Save writes the whole conversation document (upsert). A new conversation gets
// its id assigned here. Creating a second active conversation for the same user
// fails with ErrActiveConflict.
func (s *ConversationsStore) Save(ctx context.Context, conv *Conversation) error {
	isNew := conv.ID.IsZero()
	if isNew {
		conv.ID = bson.NewObjectID()
	}
	conv.UpdatedAt = time.Now()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": conv.ID}, conv, options.Replace().SetUpsert(true))
	if err != nil {
		if isNew {
			// Leave the document unsaved-looking so a retry inserts again
			conv.ID = bson.ObjectID{}
		}
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveConflict
		}
		return err
	}
	return nil
}

// MarkRead flips the read flag on one of the user's messages. It reports
// whether a message matched.
func (s *ConversationsStore) MarkRead(ctx context.Context, userID, messageID bson.ObjectID) (bool, error) {
	filter := bson.M{"user_id": userID, "messages._id": messageID}
	update := bson.M{"$set": bson.M{"messages.$.read": true}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ListEnded returns the user's ended conversations, most recent first.
func (s *ConversationsStore) ListEnded(ctx context.Context, userID bson.ObjectID, limit int64) ([]*Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_activity", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID, "is_active": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
