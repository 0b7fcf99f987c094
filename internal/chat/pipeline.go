// Package chat turns one inbound user message into a persisted exchange: the
// user's message plus either a crisis safety message or an assistant reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/responder"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Store is the conversation persistence the pipeline needs.
// *data.ConversationsStore satisfies it.
type Store interface {
	FindActive(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error)
	Save(ctx context.Context, conv *data.Conversation) error
	MarkRead(ctx context.Context, userID, messageID bson.ObjectID) (bool, error)
	ListEnded(ctx context.Context, userID bson.ObjectID, limit int64) ([]*data.Conversation, error)
}

// Classifier assigns a crisis severity to message text.
type Classifier interface {
	Classify(text string) crisis.Assessment
}

// Responder builds assistant replies. Neither method fails.
type Responder interface {
	Crisis(text string, a crisis.Assessment) responder.Reply
	Generate(ctx context.Context, text string) responder.Reply
}

// SentimentEstimator labels message text. It never fails.
type SentimentEstimator interface {
	Estimate(ctx context.Context, text string) data.Sentiment
}

// Outcome tags how a submitted message was answered.
type Outcome int

const (
	OutcomeReplied Outcome = iota + 1
	OutcomeCrisis
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReplied:
		return "replied"
	case OutcomeCrisis:
		return "crisis"
	default:
		return "unknown"
	}
}

// Result is what Submit returns for an acknowledged turn.
type Result struct {
	Outcome        Outcome
	ConversationID bson.ObjectID

	// Messages holds the user message followed by the assistant or crisis message.
	Messages []data.Message

	CrisisDetected bool
	AIError        bool
	Severity       data.Severity

	// Sentiment is empty on the crisis path.
	Sentiment data.Sentiment
}

// Config holds pipeline tunables.
type Config struct {
	// StoreTimeout bounds every store call. Zero means no bound.
	StoreTimeout time.Duration
	Logger       *slog.Logger
}

// Pipeline orchestrates classification, reply generation, sentiment and
// persistence. Sends for the same user are serialized.
type Pipeline struct {
	store      Store
	classifier Classifier
	responder  Responder
	sentiment  SentimentEstimator

	storeTimeout time.Duration
	logger       *slog.Logger
	locks        *keyedMutex

	// now is swapped in tests
	now func() time.Time
}

// New wires a Pipeline.
func New(store Store, classifier Classifier, resp Responder, sentiment SentimentEstimator, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:        store,
		classifier:   classifier,
		responder:    resp,
		sentiment:    sentiment,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

// Submit handles one message from userID. AI failures never fail the call;
// store failures always do (wrapped in ErrPersistence).
func (p *Pipeline) Submit(ctx context.Context, userID bson.ObjectID, content string) (*Result, error) {
	// received
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	unlock := p.locks.Lock(userID.Hex())
	defer unlock()

	p.logger.Info("processing new message", "user_id", userID.Hex(), "content_length", len(content))

	conv, err := p.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	userMsg, err := conv.Append(data.Message{
		Content:   content,
		Sender:    data.SenderUser,
		Timestamp: p.now(),
		Kind:      data.KindText,
	})
	if err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	// classified
	assessment := p.classifier.Classify(content)

	result := &Result{Severity: assessment.Severity}
	var reply responder.Reply

	if assessment.Severity.IsCrisis() {
		// crisis-short-circuit: no AI call, no sentiment
		p.logger.Warn("crisis detected in message",
			"user_id", userID.Hex(),
			"severity", assessment.Severity,
			"keywords", assessment.Keywords,
		)
		reply = p.responder.Crisis(content, assessment)
		result.Outcome = OutcomeCrisis
		result.CrisisDetected = true
	} else {
		// generating
		var sentiment data.Sentiment
		var g errgroup.Group
		g.Go(func() error {
			reply = p.responder.Generate(ctx, content)
			return nil
		})
		g.Go(func() error {
			sentiment = p.sentiment.Estimate(ctx, content)
			return nil
		})
		_ = g.Wait()

		// Latest turn only, not an aggregate
		conv.Sentiment = sentiment
		result.Outcome = OutcomeReplied
		result.Sentiment = sentiment
		result.AIError = reply.AIError
	}

	assistantMsg, err := conv.Append(data.Message{
		Content:   reply.Content,
		Sender:    data.SenderAssistant,
		Timestamp: p.now(),
		Kind:      reply.Kind,
		Metadata:  reply.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	// persisted
	newMsgs := []data.Message{userMsg, assistantMsg}
	conv.LastActivity = assistantMsg.Timestamp
	conv, err = p.persist(ctx, conv, newMsgs)
	if err != nil {
		p.logger.Error("failed to persist conversation", "user_id", userID.Hex(), "error", err)
		return nil, err
	}

	// responded
	result.ConversationID = conv.ID
	result.Messages = newMsgs
	return result, nil
}

// End closes the user's active conversation and returns it.
func (p *Pipeline) End(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	unlock := p.locks.Lock(userID.Hex())
	defer unlock()

	conv, err := p.findActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	conv.End()
	conv.LastActivity = p.now()

	sctx, cancel := p.storeContext(ctx)
	defer cancel()
	if err := p.store.Save(sctx, conv); err != nil {
		return nil, fmt.Errorf("%w: end conversation: %w", ErrPersistence, err)
	}

	p.logger.Info("conversation ended", "user_id", userID.Hex(), "conversation_id", conv.ID.Hex())
	return conv, nil
}

// Active returns the user's active conversation or ErrNoActiveConversation.
func (p *Pipeline) Active(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	return p.findActive(ctx, userID)
}

// Messages returns the active conversation's messages in append order, or an
// empty slice when there is no active conversation.
func (p *Pipeline) Messages(ctx context.Context, userID bson.ObjectID) ([]data.Message, error) {
	conv, err := p.findActive(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveConversation) {
			return []data.Message{}, nil
		}
		return nil, err
	}
	return conv.Messages, nil
}

// MarkRead sets the read flag on one of the user's messages.
func (p *Pipeline) MarkRead(ctx context.Context, userID, messageID bson.ObjectID) error {
	sctx, cancel := p.storeContext(ctx)
	defer cancel()

	ok, err := p.store.MarkRead(sctx, userID, messageID)
	if err != nil {
		return fmt.Errorf("%w: mark read: %w", ErrPersistence, err)
	}
	if !ok {
		return ErrMessageNotFound
	}
	return nil
}

// History returns the user's ended conversations, most recent first. A
// non-positive limit means DefaultHistoryLimit; it is capped at MaxHistoryLimit.
func (p *Pipeline) History(ctx context.Context, userID bson.ObjectID, limit int) ([]*data.Conversation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	sctx, cancel := p.storeContext(ctx)
	defer cancel()

	convs, err := p.store.ListEnded(sctx, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", ErrPersistence, err)
	}
	return convs, nil
}

func (p *Pipeline) findActive(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	sctx, cancel := p.storeContext(ctx)
	defer cancel()

	conv, err := p.store.FindActive(sctx, userID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrNoActiveConversation
		}
		return nil, fmt.Errorf("%w: find active conversation: %w", ErrPersistence, err)
	}
	return conv, nil
}

func (p *Pipeline) loadOrCreate(ctx context.Context, userID bson.ObjectID) (*data.Conversation, error) {
	conv, err := p.findActive(ctx, userID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNoActiveConversation) {
		return nil, err
	}

	p.logger.Info("creating new chat session", "user_id", userID.Hex())
	return data.NewConversation(userID, p.now()), nil
}

// persist saves conv. If another writer created an active conversation for
// the user first, the new messages are re-appended to that one instead.
func (p *Pipeline) persist(ctx context.Context, conv *data.Conversation, newMsgs []data.Message) (*data.Conversation, error) {
	sctx, cancel := p.storeContext(ctx)
	defer cancel()

	err := p.store.Save(sctx, conv)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, data.ErrActiveConflict) {
		return nil, fmt.Errorf("%w: save conversation: %w", ErrPersistence, err)
	}

	p.logger.Warn("active conversation created concurrently, merging", "user_id", conv.UserID.Hex())

	winner, err := p.store.FindActive(sctx, conv.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload active conversation: %w", ErrPersistence, err)
	}
	for _, m := range newMsgs {
		if _, err := winner.Append(m); err != nil {
			return nil, fmt.Errorf("%w: merge messages: %w", ErrPersistence, err)
		}
	}
	if conv.Sentiment != "" {
		winner.Sentiment = conv.Sentiment
	}
	winner.LastActivity = conv.LastActivity

	if err := p.store.Save(sctx, winner); err != nil {
		return nil, fmt.Errorf("%w: save merged conversation: %w", ErrPersistence, err)
	}
	return winner, nil
}

// storeContext detaches ctx from request cancellation so an in-flight write
// completes, and applies the store timeout.
func (p *Pipeline) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if p.storeTimeout > 0 {
		return context.WithTimeout(ctx, p.storeTimeout)
	}
	return ctx, func() {}
}
