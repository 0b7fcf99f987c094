package cli

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// stubServer answers with canned data and records what it saw.
type stubServer struct {
	v1.UnimplementedWellnessServiceServer

	authHeader string
	login      *v1.LoginRequest
	sent       string
}

func (s *stubServer) record(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("authorization"); len(v) > 0 {
			s.authHeader = v[0]
		}
	}
}

func (s *stubServer) Login(ctx context.Context, req *v1.LoginRequest) (*v1.AuthResponse, error) {
	s.login = req
	if req.Password != "Secret#123" {
		return nil, status.Error(codes.Unauthenticated, "invalid email or password")
	}
	return &v1.AuthResponse{Token: "tok-123"}, nil
}

func (s *stubServer) SendMessage(ctx context.Context, req *v1.SendMessageRequest) (*v1.SendMessageResponse, error) {
	s.record(ctx)
	s.sent = req.Content
	now := time.Now()
	return &v1.SendMessageResponse{
		Messages: []v1.Message{
			{ID: "m1", Sender: "user", Content: req.Content, Timestamp: now},
			{ID: "m2", Sender: "assistant", Content: "I'm here with you.", Timestamp: now},
		},
		Severity:  "low",
		Sentiment: "negative",
	}, nil
}

func (s *stubServer) GetHistory(req *v1.GetHistoryRequest, stream grpc.ServerStreamingServer[v1.Conversation]) error {
	s.record(stream.Context())
	for _, id := range []string{"c2", "c1"} {
		if err := stream.Send(&v1.Conversation{ID: id, LastActivity: time.Now(), Sentiment: "neutral"}); err != nil {
			return err
		}
	}
	return nil
}

func bufDialer(t *testing.T, srv v1.WellnessServiceServer) DialFunc {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	v1.RegisterWellnessServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return func(string, bool) (v1.WellnessServiceClient, func() error, error) {
		conn, err := grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, nil, err
		}
		return v1.NewWellnessServiceClient(conn), conn.Close, nil
	}
}

func run(t *testing.T, srv v1.WellnessServiceServer, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(TokenEnv, "")

	cmd := newRootCmd(bufDialer(t, srv))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginPrintsToken(t *testing.T) {
	srv := &stubServer{}

	out, err := run(t, srv, "", "login", "-e", "ada@example.com", "-p", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123\n", out)
	assert.Equal(t, "ada@example.com", srv.login.Email)
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	srv := &stubServer{}

	out, err := run(t, srv, "Secret#123\n", "login", "-e", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-123\n", out)
	assert.Equal(t, "Secret#123", srv.login.Password)

	_, err = run(t, srv, "wrong\n", "login", "-e", "ada@example.com")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = run(t, srv, "", "login", "-e", "ada@example.com")
	assert.ErrorContains(t, err, "password is required")
}

func TestSendRequiresToken(t *testing.T) {
	_, err := run(t, &stubServer{}, "", "send", "hello")
	assert.ErrorContains(t, err, TokenEnv)
}

func TestSendPrintsReplyWithBearerToken(t *testing.T) {
	srv := &stubServer{}

	out, err := run(t, srv, "", "--token", "tok-123", "send", "rough", "day")
	require.NoError(t, err)
	assert.Equal(t, "rough day", srv.sent)
	assert.Equal(t, "Bearer tok-123", srv.authHeader)
	assert.Contains(t, out, "assistant:")
	assert.Contains(t, out, "I'm here with you.")
	assert.NotContains(t, out, "rough day", "only the reply is printed")
}

func TestHistoryStreamsConversations(t *testing.T) {
	srv := &stubServer{}

	out, err := run(t, srv, "", "--token", "tok-123", "history", "-n", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "c2"))
	assert.True(t, strings.HasPrefix(lines[1], "c1"))
	assert.Contains(t, lines[0], "neutral")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, &v1.Event{Type: v1.EventTypingStart})
	printEvent(&buf, &v1.Event{Type: v1.EventMessageRead, MessageID: "m9"})
	printEvent(&buf, &v1.Event{Type: v1.EventMessageNew, Message: &v1.Message{Sender: "assistant", Content: "hi", Read: true}})

	out := buf.String()
	assert.Contains(t, out, "typing:start\n")
	assert.Contains(t, out, "read m9\n")
	assert.Contains(t, out, "✓ assistant: hi")
}
