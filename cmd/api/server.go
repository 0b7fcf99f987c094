package main

import (
	"context"
	"log/slog"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/auth"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/chat"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"

	"go.mongodb.org/mongo-driver/v2/bson"
	"google.golang.org/grpc"
)

// userStore is the subset of data.UsersStore the handlers use.
type userStore interface {
	CreateUser(ctx context.Context, name, email, hashedPassword string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error)
	UserExists(ctx context.Context, id bson.ObjectID) (bool, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, upd data.ProfileUpdate) (*data.User, error)
}

// chatService is the message pipeline as seen by the handlers.
type chatService interface {
	Submit(ctx context.Context, userID bson.ObjectID, content string) (*chat.Result, error)
	End(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error)
	Active(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error)
	Messages(ctx context.Context, userID bson.ObjectID) ([]data.Message, error)
	MarkRead(ctx context.Context, userID, messageID bson.ObjectID) error
	History(ctx context.Context, userID bson.ObjectID, limit int) ([]*data.Conversation, error)
}

// Server implements the wellness service and contains references to stores, the pipeline and auth logic.
type Server struct {
	v1.UnimplementedWellnessServiceServer

	users  userStore
	chat   chatService
	auth   *auth.JWTManager
	hub    *ConnectionHub
	logger *slog.Logger
}

// newServer returns a ready-to-use Server. hub may be nil, in which case no
// real-time events are published.
func newServer(users userStore, chat chatService, authMgr *auth.JWTManager, hub *ConnectionHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{users: users, chat: chat, auth: authMgr, hub: hub, logger: logger}
}

// registerService registers the WellnessService on the given gRPC server.
func registerService(s *grpc.Server, srv *Server) {
	v1.RegisterWellnessServiceServer(s, srv)
}
