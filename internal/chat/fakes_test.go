package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/llm"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/responder"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/sentiment"
)

// memStore keeps conversation documents in memory and enforces one active
// conversation per user the way the partial unique index does.
type memStore struct {
	mu    sync.Mutex
	convs map[bson.ObjectID]*data.Conversation

	saveErr error
	findErr error
	saves   int

	// beforeInsert runs once before the first insert of a new conversation.
	beforeInsert func(s *memStore, conv *data.Conversation)
}

func newMemStore() *memStore {
	return &memStore{convs: make(map[bson.ObjectID]*data.Conversation)}
}

func clone(c *data.Conversation) *data.Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return &cp
}

func (s *memStore) FindActive(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, c := range s.convs {
		if c.UserID == userID && c.IsActive {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("active conversation %w", data.ErrNotFound)
}

func (s *memStore) Save(ctx context.Context, conv *data.Conversation) error {
	s.mu.Lock()
	if hook := s.beforeInsert; hook != nil && conv.ID.IsZero() {
		s.beforeInsert = nil
		s.mu.Unlock()
		hook(s, conv)
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.saveErr != nil {
		return s.saveErr
	}

	isNew := conv.ID.IsZero()
	if isNew {
		conv.ID = bson.NewObjectID()
	}
	if conv.IsActive {
		for id, c := range s.convs {
			if id != conv.ID && c.UserID == conv.UserID && c.IsActive {
				if isNew {
					conv.ID = bson.ObjectID{}
				}
				return data.ErrActiveConflict
			}
		}
	}

	s.saves++
	s.convs[conv.ID] = clone(conv)
	return nil
}

func (s *memStore) MarkRead(ctx context.Context, userID, messageID bson.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

func (s *memStore) ListEnded(ctx context.Context, userID bson.ObjectID, limit int64) ([]*data.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*data.Conversation
	for _, c := range s.convs {
		if c.UserID == userID && !c.IsActive {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) byUser(userID bson.ObjectID) []*data.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*data.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	return out
}

// completerFunc answers both the reply prompt and the sentiment prompt. The
// sentiment request is the one with MaxTokens 10.
type completerFunc func(ctx context.Context, req llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

func answering(reply, label string) completerFunc {
	return func(ctx context.Context, req llm.Request) (string, error) {
		if req.MaxTokens == 10 {
			return label, nil
		}
		return reply, nil
	}
}

var errUnreachable = errors.New("dial tcp: connection refused")

func failing() completerFunc {
	return func(ctx context.Context, req llm.Request) (string, error) {
		return "", errUnreachable
	}
}


func newPipeline(store Store, completer llm.Completer) *Pipeline {
	logger := slog.New(slog.DiscardHandler)
	return New(
		store,
		crisis.NewClassifier(crisis.DefaultLexicon(), logger),
		responder.New(completer, time.Second, logger),
		sentiment.New(completer, sentiment.DefaultLexicon(), time.Second, logger),
		Config{StoreTimeout: time.Second, Logger: logger},
	)
}
