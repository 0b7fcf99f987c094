package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/auth"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/chat"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/config"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/crisis"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/db"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/llm"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/middleware"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/responder"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/sentiment"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dbClient, err := db.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect to DB: %w", err)
	}
	defer func() {
		_ = dbClient.Close(context.Background())
	}()

	// Ensure indexes exist (including the one-active-conversation-per-user index)
	if err := dbClient.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	// Create stores
	usersStore := data.NewUsersStore(dbClient.UsersCollection())
	convStore := data.NewConversationsStore(dbClient.ConversationsCollection())

	jwtMgr, err := newJWTManager(cfg)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(ctx, cfg, convStore, logger)
	if err != nil {
		return err
	}

	// Rate limiters: one for the credential endpoints (keyed by email), one
	// for message sends (keyed by user, so it runs after auth)
	authLimiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)
	defer authLimiter.Stop()
	msgLimiter := middleware.NewLimiterStore(cfg.MessageRateLimitRPM, 5, time.Minute)
	defer msgLimiter.Stop()

	var serverOpts []grpc.ServerOption

	// If TLS certs are configured, create server credentials and require TLS
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS certs: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	} else if cfg.RequireTLS {
		return errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured")
	}

	serverOpts = append(serverOpts, interceptorOptions(logger, jwtMgr, authLimiter, msgLimiter)...)

	grpcServer := grpc.NewServer(serverOpts...)

	// Create connection hub, service instance and register
	hub := NewConnectionHub()
	srv := newServer(usersStore, pipeline, jwtMgr, hub, logger)
	registerService(grpcServer, srv)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newHTTPHandler(srv, dbClient, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", lis.Addr().String())
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown on SIGINT/SIGTERM or when either server fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = httpServer.Shutdown(shutdownCtx)
		gracefulStop(shutdownCtx, grpcServer)
		return nil
	})

	return g.Wait()
}

// interceptorOptions chains logging -> rate limit (credentials) -> auth ->
// rate limit (messages). The message limiter keys by user, so it must run after auth.
func interceptorOptions(logger *slog.Logger, jwtMgr *auth.JWTManager, authLimiter, msgLimiter *middleware.LimiterStore) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			middleware.LoggingUnaryInterceptor(logger),
			middleware.RateLimitUnaryInterceptor(authLimiter, publicMethods, middleware.EmailOrPeerKey),
			authUnaryInterceptor(jwtMgr),
			middleware.RateLimitUnaryInterceptor(msgLimiter, map[string]bool{v1.FullMethodSendMessage: true}, userKey),
		),
		grpc.ChainStreamInterceptor(
			middleware.LoggingStreamInterceptor(logger),
			authStreamInterceptor(jwtMgr),
		),
	}
}

// gracefulStop drains in-flight RPCs; open Subscribe streams never finish on
// their own, so it falls back to Stop when ctx expires.
func gracefulStop(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}

// newJWTManager uses JWT_KEYS for rotation when set, otherwise the single JWT_SECRET.
func newJWTManager(cfg config.Config) (*auth.JWTManager, error) {
	if cfg.JWTKeys == "" {
		return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), nil
	}
	keys, err := cfg.ParseJWTKeys()
	if err != nil {
		return nil, err
	}
	return auth.NewJWTManagerFromKeys(keys, cfg.JWTActiveKid, cfg.JWTTTL), nil
}

// newPipeline wires classifier, responder and sentiment estimator. A provider
// that cannot be built leaves the server running on fallbacks.
func newPipeline(ctx context.Context, cfg config.Config, store chat.Store, logger *slog.Logger) (*chat.Pipeline, error) {
	kw, err := config.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		return nil, err
	}
	crisisLex, sentimentLex := lexicons(kw)

	completer, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		logger.Error("AI provider unavailable, replies will use fallback text", "provider", cfg.LLMProvider, "error", err)
		completer = nil
	} else {
		logger.Info("AI provider configured", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	}

	return chat.New(
		store,
		crisis.NewClassifier(crisisLex, logger),
		responder.New(completer, cfg.AITimeout, logger),
		sentiment.New(completer, sentimentLex, cfg.SentimentTimeout, logger),
		chat.Config{StoreTimeout: cfg.StoreTimeout, Logger: logger},
	), nil
}

// lexicons applies keyword file overrides on top of the built-in lists.
func lexicons(kw config.Keywords) (crisis.Lexicon, sentiment.Lexicon) {
	c := crisis.DefaultLexicon()
	c.Severe = override(c.Severe, kw.Crisis.Severe)
	c.High = override(c.High, kw.Crisis.High)
	c.Medium = override(c.Medium, kw.Crisis.Medium)
	c.Low = override(c.Low, kw.Crisis.Low)

	s := sentiment.DefaultLexicon()
	s.Positive = override(s.Positive, kw.Sentiment.Positive)
	s.Negative = override(s.Negative, kw.Sentiment.Negative)
	return c, s
}

func override(def, custom []string) []string {
	if len(custom) > 0 {
		return custom
	}
	return def
}
