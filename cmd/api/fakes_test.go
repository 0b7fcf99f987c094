package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/auth"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/chat"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/normalize"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/responder"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/sentiment"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const testSecret = "test-secret"

// fakeUsers is an in-memory userStore.
type fakeUsers struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*data.User
	err   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[bson.ObjectID]*data.User)}
}

func (f *fakeUsers) CreateUser(ctx context.Context, name, email, hashedPassword string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	email = normalize.Email(email)
	for _, u := range f.users {
		if u.Email == email {
			return nil, data.ErrDuplicateEmail
		}
	}
	u := &data.User{
		ID:          bson.NewObjectID(),
		Name:        name,
		Email:       email,
		Password:    hashedPassword,
		Preferences: data.DefaultPreferences(),
		CreatedAt:   time.Now(),
	}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	email = normalize.Email(email)
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %w", data.ErrNotFound)
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", data.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UserExists(ctx context.Context, id bson.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id bson.ObjectID, upd data.ProfileUpdate) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", data.ErrNotFound)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Preferences != nil {
		u.Preferences = *upd.Preferences
	}
	if upd.EmergencyContacts != nil {
		u.EmergencyContacts = upd.EmergencyContacts
	}
	cp := *u
	return &cp, nil
}

// add stores a user directly and returns it.
func (f *fakeUsers) add(name, email string) *data.User {
	u, err := f.CreateUser(context.Background(), name, email, "")
	if err != nil {
		panic(err)
	}
	return u
}

// memConvs is an in-memory chat.Store with one active conversation per user.
type memConvs struct {
	mu    sync.Mutex
	convs map[bson.ObjectID]*data.Conversation
	err   error
}

func newMemConvs() *memConvs {
	return &memConvs{convs: make(map[bson.ObjectID]*data.Conversation)}
}

func cloneConv(c *data.Conversation) *data.Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return &cp
}

func (s *memConvs) FindActive(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.convs {
		if c.UserID == userID && c.IsActive {
			return cloneConv(c), nil
		}
	}
	return nil, fmt.Errorf("active conversation %w", data.ErrNotFound)
}

func (s *memConvs) Save(ctx context.Context, conv *data.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	if conv.ID.IsZero() {
		for _, c := range s.convs {
			if c.UserID == conv.UserID && c.IsActive && conv.IsActive {
				return data.ErrActiveConflict
			}
		}
		conv.ID = bson.NewObjectID()
	}
	s.convs[conv.ID] = cloneConv(conv)
	return nil
}

func (s *memConvs) MarkRead(ctx context.Context, userID, messageID bson.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	for _, c := range s.convs {
		if c.UserID != userID {
			continue
		}
		for i := range c.Messages {
			if c.Messages[i].ID == messageID {
				c.Messages[i].Read = true
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *memConvs) ListEnded(ctx context.Context, userID bson.ObjectID, limit int64) ([]*data.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []*data.Conversation
	for _, c := range s.convs {
		if c.UserID == userID && !c.IsActive {
			out = append(out, cloneConv(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// newTestPipeline wires the real pipeline without an AI provider: replies use
// the fallback text and sentiment uses the keyword lexicon.
func newTestPipeline(store chat.Store) *chat.Pipeline {
	logger := slog.New(slog.DiscardHandler)
	return chat.New(
		store,
		crisis.NewClassifier(crisis.DefaultLexicon(), logger),
		responder.New(nil, time.Second, logger),
		sentiment.New(nil, sentiment.DefaultLexicon(), time.Second, logger),
		chat.Config{StoreTimeout: time.Second, Logger: logger},
	)
}

type testEnv struct {
	srv   *Server
	users *fakeUsers
	convs *memConvs
	hub   *ConnectionHub
	jwt   *auth.JWTManager
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users: newFakeUsers(),
		convs: newMemConvs(),
		hub:   NewConnectionHub(),
		jwt:   auth.NewJWTManager(testSecret, time.Hour),
	}
	env.srv = newServer(env.users, newTestPipeline(env.convs), env.jwt, env.hub, slog.New(slog.DiscardHandler))
	return env
}

// authed returns a context carrying the user's claims, as the auth interceptor would.
func authed(u *data.User) context.Context {
	claims := &auth.Claims{UserID: u.ID.Hex(), Email: u.Email}
	return context.WithValue(context.Background(), authContextKey{}, claims)
}
