// Package v1 declares the mindcare.v1.WellnessService gRPC contract: request
// and response messages, the service descriptor, and a client.
package v1

import "time"

// Event types pushed to Subscribe streams and websocket sessions.
const (
	EventMessageNew  = "message:new"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
	EventMessageRead = "message:read"
)

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// User is the public profile; the password hash never leaves the server.
type User struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Preferences       Preferences        `json:"preferences"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

type MessageMetadata struct {
	Severity     string `json:"severity,omitempty"`
	ExerciseType string `json:"exercise_type,omitempty"`
	ResourceURL  string `json:"resource_url,omitempty"`
}

type Message struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Sender    string           `json:"sender"`
	Timestamp time.Time        `json:"timestamp"`
	Type      string           `json:"type"`
	Read      bool             `json:"read"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

type Conversation struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	IsActive     bool      `json:"is_active"`
	LastActivity time.Time `json:"last_activity"`
	Sentiment    string    `json:"sentiment,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

// AuthResponse is returned by both Register and Login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type GetProfileRequest struct{}

type ProfileResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name              *string            `json:"name,omitempty"`
	Preferences       *Preferences       `json:"preferences,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	CrisisDetected bool      `json:"crisis_detected"`
	AIError        bool      `json:"ai_error,omitempty"`
	Severity       string    `json:"severity"`
	Sentiment      string    `json:"sentiment,omitempty"`
}

type GetMessagesRequest struct{}

type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type GetActiveChatRequest struct{}

type EndChatRequest struct{}

// ChatResponse carries one conversation (GetActiveChat, EndChat).
type ChatResponse struct {
	Conversation *Conversation `json:"conversation"`
}

type MarkReadRequest struct {
	MessageID string `json:"message_id"`
}

type MarkReadResponse struct{}

type SetTypingRequest struct {
	Typing bool `json:"typing"`
}

type SetTypingResponse struct{}

type SubscribeRequest struct{}

type GetHistoryRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

// Event is a real-time notification for one user's sessions.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Message   *Message  `json:"message,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
