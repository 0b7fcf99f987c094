package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MessageKind is the presentation type of a message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindExercise MessageKind = "exercise"
	KindResource MessageKind = "resource"
	KindCrisis   MessageKind = "crisis"
)

// Severity is the crisis risk tier detected in a message.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeveritySevere Severity = "severe"
)

// IsCrisis reports whether the tier requires the safety response instead of an AI reply.
func (s Severity) IsCrisis() bool {
	return s == SeverityHigh || s == SeveritySevere
}

// Sentiment is the coarse mood label attached to the latest user turn.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// User maps to users collection (profile, password hash, preferences, timestamps)
type User struct {
	ID                bson.ObjectID      `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	Password          string             `bson:"password"`
	Preferences       Preferences        `bson:"preferences"`
	EmergencyContacts []EmergencyContact `bson:"emergency_contacts,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

// Preferences holds per-user client settings.
type Preferences struct {
	Theme         string `bson:"theme"`
	Notifications bool   `bson:"notifications"`
	Language      string `bson:"language"`
}

// DefaultPreferences are applied to newly registered users.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Language: "en"}
}

// EmergencyContact is a person the user asked to be reachable through.
type EmergencyContact struct {
	Name         string `bson:"name"`
	Relationship string `bson:"relationship"`
	Phone        string `bson:"phone"`
	Email        string `bson:"email"`
}

// ProfileUpdate carries the optional fields a user may change on their profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name              *string
	Preferences       *Preferences
	EmergencyContacts []EmergencyContact
}

// Message is a single entry embedded in a conversation document.
type Message struct {
	ID        bson.ObjectID    `bson:"_id"`
	Content   string           `bson:"content"`
	Sender    Sender           `bson:"sender"`
	Timestamp time.Time        `bson:"timestamp"`
	Kind      MessageKind      `bson:"type"`
	Read      bool             `bson:"read"`
	Metadata  *MessageMetadata `bson:"metadata,omitempty"`
}

// MessageMetadata is optional per-kind detail (severity for crisis messages).
type MessageMetadata struct {
	Severity     Severity `bson:"severity,omitempty"`
	ExerciseType string   `bson:"exercise_type,omitempty"`
	ResourceURL  string   `bson:"resource_url,omitempty"`
}

// Conversation maps to conversations collection: one active thread per user,
// messages kept in append order.
type Conversation struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	UserID       bson.ObjectID `bson:"user_id"`
	Messages     []Message     `bson:"messages"`
	IsActive     bool          `bson:"is_active"`
	LastActivity time.Time     `bson:"last_activity"`
	Sentiment    Sentiment     `bson:"sentiment,omitempty"`
	Summary      string        `bson:"summary,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

// NewConversation returns an empty active conversation owned by userID.
func NewConversation(userID bson.ObjectID, now time.Time) *Conversation {
	return &Conversation{
		UserID:       userID,
		Messages:     []Message{},
		IsActive:     true,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Append adds a message to the end of the conversation and returns it with its
// id assigned. Ended conversations are frozen.
func (c *Conversation) Append(m Message) (Message, error) {
	if !c.IsActive {
		return Message{}, ErrConversationClosed
	}
	if m.ID.IsZero() {
		m.ID = bson.NewObjectID()
	}
	c.Messages = append(c.Messages, m)
	return m, nil
}

// End marks the conversation inactive. It is terminal.
func (c *Conversation) End() {
	c.IsActive = false
}
