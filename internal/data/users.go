// Package data provides DB models and stores.
package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Error handling
	"fmt"
	"time" // Timestamps

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"  // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo" // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersStore performs user DB operations.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user document with hashed password and default preferences.
func (u *UsersStore) CreateUser(ctx context.Context, name, email, hashedPassword string) (*User, error) {
	now := time.Now()
	user := &User{
		Name:        name,
		Email:       normalize.Email(email),
		Password:    hashedPassword, // Already hashed by auth.HashPassword()
		Preferences: DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email rejects a second registration
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	// MongoDB auto-generates the _id field; used as the JWT subject via auth.GenerateToken()
	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetUserByEmail finds a user by email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User

	err := u.coll.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}

	// Handler will use Password field to verify with auth.CheckPassword()
	return &user, nil
}

// GetUserByID finds a user by ObjectID.
func (u *UsersStore) GetUserByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var user User

	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		// No document found (user was deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}

	return &user, nil
}

// UserExists checks if a user exists by id.
func (u *UsersStore) UserExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	// Much faster than FindOne when you only need to know if it exists
	count, err := u.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the updated user.
func (u *UsersStore) UpdateProfile(ctx context.Context, id bson.ObjectID, upd ProfileUpdate) (*User, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Preferences != nil {
		set["preferences"] = *upd.Preferences
	}
	if upd.EmergencyContacts != nil {
		set["emergency_contacts"] = upd.EmergencyContacts
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := u.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}
