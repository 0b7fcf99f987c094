package main

import (
	"context"
	"errors"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/auth"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/chat"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/validation"

	"go.mongodb.org/mongo-driver/v2/bson"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Register validates input, hashes the password, stores the user and returns a JWT token
func (s *Server) Register(ctx context.Context, req *v1.RegisterRequest) (*v1.AuthResponse, error) {
	if err := validation.Register(validation.Registration{Name: req.Name, Email: req.Email, Password: req.Password}); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to hash password: %v", err)
	}

	user, err := s.users.CreateUser(ctx, req.Name, req.Email, hashed)
	if err != nil {
		if errors.Is(err, data.ErrDuplicateEmail) {
			return nil, status.Errorf(codes.AlreadyExists, "email already registered")
		}
		s.logger.Error("create user failed", "error", err)
		return nil, status.Errorf(codes.Internal, "failed to create user")
	}

	s.logger.Info("new user registered", "user_id", user.ID.Hex())
	return s.authResponse(user)
}

// Login authenticates a user and returns a JWT token
func (s *Server) Login(ctx context.Context, req *v1.LoginRequest) (*v1.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, status.Errorf(codes.Unauthenticated, "invalid email or password")
		}
		s.logger.Error("lookup user failed", "error", err)
		return nil, status.Errorf(codes.Internal, "failed to look up user")
	}

	// Same message as an unknown email so accounts cannot be probed
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID.Hex())
	return s.authResponse(user)
}

func (s *Server) authResponse(user *data.User) (*v1.AuthResponse, error) {
	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to generate token: %v", err)
	}
	return &v1.AuthResponse{Token: token, ExpiresAt: expiresAt, User: toUser(user)}, nil
}

// GetProfile returns the caller's profile
func (s *Server) GetProfile(ctx context.Context, _ *v1.GetProfileRequest) (*v1.ProfileResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.userError(err)
	}
	return &v1.ProfileResponse{User: toUser(user)}, nil
}

// UpdateProfile changes the name, preferences or emergency contacts that are present in the request
func (s *Server) UpdateProfile(ctx context.Context, req *v1.UpdateProfileRequest) (*v1.ProfileResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	prefs, contacts, upd := profileUpdate(req)
	if err := validation.Profile(req.Name, prefs, contacts); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, s.userError(err)
	}
	return &v1.ProfileResponse{User: toUser(user)}, nil
}

func (s *Server) userError(err error) error {
	if errors.Is(err, data.ErrNotFound) {
		return status.Errorf(codes.NotFound, "user not found")
	}
	s.logger.Error("user store failed", "error", err)
	return status.Errorf(codes.Internal, "failed to load user")
}

// SendMessage runs the message pipeline and pushes the new messages to the caller's other sessions
func (s *Server) SendMessage(ctx context.Context, req *v1.SendMessageRequest) (*v1.SendMessageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.chat.Submit(ctx, userID, req.Content)
	if err != nil {
		return nil, s.chatError(err)
	}

	msgs := toMessages(res.Messages)
	for i := range msgs {
		s.publish(userID, 0, &v1.Event{Type: v1.EventMessageNew, Message: &msgs[i]})
	}

	return &v1.SendMessageResponse{
		ConversationID: res.ConversationID.Hex(),
		Messages:       msgs,
		CrisisDetected: res.CrisisDetected,
		AIError:        res.AIError,
		Severity:       string(res.Severity),
		Sentiment:      string(res.Sentiment),
	}, nil
}

// GetMessages returns the active conversation's messages (empty when there is none)
func (s *Server) GetMessages(ctx context.Context, _ *v1.GetMessagesRequest) (*v1.GetMessagesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := s.chat.Messages(ctx, userID)
	if err != nil {
		return nil, s.chatError(err)
	}
	return &v1.GetMessagesResponse{Messages: toMessages(msgs)}, nil
}

// GetActiveChat returns the caller's active conversation
func (s *Server) GetActiveChat(ctx context.Context, _ *v1.GetActiveChatRequest) (*v1.ChatResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	conv, err := s.chat.Active(ctx, userID)
	if err != nil {
		return nil, s.chatError(err)
	}
	return &v1.ChatResponse{Conversation: toConversation(conv)}, nil
}

// EndChat closes the caller's active conversation
func (s *Server) EndChat(ctx context.Context, _ *v1.EndChatRequest) (*v1.ChatResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	conv, err := s.chat.End(ctx, userID)
	if err != nil {
		return nil, s.chatError(err)
	}
	return &v1.ChatResponse{Conversation: toConversation(conv)}, nil
}

// MarkRead flags one of the caller's messages as read
func (s *Server) MarkRead(ctx context.Context, req *v1.MarkReadRequest) (*v1.MarkReadResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, userID, req.MessageID, 0); err != nil {
		return nil, err
	}
	return &v1.MarkReadResponse{}, nil
}

// markRead is shared by the RPC and the websocket bridge; except is the
// originating session (0 for none).
func (s *Server) markRead(ctx context.Context, userID bson.ObjectID, messageID string, except int64) error {
	msgID, err := bson.ObjectIDFromHex(messageID)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid message id")
	}

	if err := s.chat.MarkRead(ctx, userID, msgID); err != nil {
		return s.chatError(err)
	}

	s.publish(userID, except, &v1.Event{Type: v1.EventMessageRead, MessageID: messageID})
	return nil
}

// SetTyping relays a typing indicator to the caller's sessions
func (s *Server) SetTyping(ctx context.Context, req *v1.SetTypingRequest) (*v1.SetTypingResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.publish(userID, 0, typingEvent(req.Typing))
	return &v1.SetTypingResponse{}, nil
}

func typingEvent(typing bool) *v1.Event {
	if typing {
		return &v1.Event{Type: v1.EventTypingStart}
	}
	return &v1.Event{Type: v1.EventTypingStop}
}

// Subscribe streams real-time events for the caller until the client goes away
func (s *Server) Subscribe(_ *v1.SubscribeRequest, stream grpc.ServerStreamingServer[v1.Event]) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	// Tokens outlive deleted accounts
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to verify user: %v", err)
	}
	if !exists {
		return status.Errorf(codes.NotFound, "user not found")
	}

	if s.hub == nil {
		return status.Errorf(codes.Unavailable, "real-time events are disabled")
	}

	// Register this stream in the hub and ensure we unregister when it returns
	connID := s.hub.Register(userID.Hex(), &lockedSender{send: stream.Send})
	defer s.hub.Unregister(userID.Hex(), connID)

	s.logger.Info("subscriber connected", "user_id", userID.Hex(), "conn_id", connID)
	<-ctx.Done()
	s.logger.Info("subscriber disconnected", "user_id", userID.Hex(), "conn_id", connID)
	return nil
}

// GetHistory streams the caller's ended conversations, most recent first
func (s *Server) GetHistory(req *v1.GetHistoryRequest, stream grpc.ServerStreamingServer[v1.Conversation]) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	convs, err := s.chat.History(ctx, userID, int(req.Limit))
	if err != nil {
		return s.chatError(err)
	}

	for _, c := range convs {
		if err := stream.Send(toConversation(c)); err != nil {
			return status.Errorf(codes.Internal, "failed to send conversation: %v", err)
		}
	}
	return nil
}

// chatError maps pipeline errors onto status codes.
func (s *Server) chatError(err error) error {
	switch {
	case errors.Is(err, chat.ErrEmptyContent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, chat.ErrNoActiveConversation):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, chat.ErrMessageNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.Error("chat operation failed", "error", err)
		return status.Errorf(codes.Internal, "failed to process chat request")
	}
}

// publish delivers ev to the user's sessions. Delivery is best-effort: an
// offline user or a broken session is only logged.
func (s *Server) publish(userID bson.ObjectID, except int64, ev *v1.Event) {
	if s.hub == nil {
		return
	}
	ev.UserID = userID.Hex()
	ev.Timestamp = time.Now()

	if err := s.hub.SendToOthers(userID.Hex(), except, ev); err != nil {
		s.logger.Debug("event not delivered", "user_id", userID.Hex(), "type", ev.Type, "error", err)
	}
}
