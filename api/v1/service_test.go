package v1

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoServer struct {
	UnimplementedWellnessServiceServer
}

func (e *echoServer) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	return &AuthResponse{Token: "t-" + req.Email, User: &User{Email: req.Email}}, nil
}

func (e *echoServer) Subscribe(req *SubscribeRequest, stream grpc.ServerStreamingServer[Event]) error {
	for _, typ := range []string{EventTypingStart, EventTypingStop} {
		if err := stream.Send(&Event{Type: typ, UserID: "u1"}); err != nil {
			return err
		}
	}
	return nil
}

func newTestClient(t *testing.T, srv WellnessServiceServer, opts ...grpc.ServerOption) WellnessServiceClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer(opts...)
	RegisterWellnessServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewWellnessServiceClient(conn)
}

func TestUnaryOverJSONCodec(t *testing.T) {
	var seen string
	intercept := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	client := newTestClient(t, &echoServer{}, grpc.UnaryInterceptor(intercept))

	resp, err := client.Login(context.Background(), &LoginRequest{Email: "a@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "t-a@example.com", resp.Token)
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.Equal(t, FullMethodLogin, seen)
}

func TestUnimplementedMethods(t *testing.T) {
	client := newTestClient(t, &echoServer{})

	_, err := client.GetProfile(context.Background(), &GetProfileRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	stream, err := client.GetHistory(context.Background(), &GetHistoryRequest{})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestServerStream(t *testing.T) {
	client := newTestClient(t, &echoServer{})

	stream, err := client.Subscribe(context.Background(), &SubscribeRequest{})
	require.NoError(t, err)

	var types []string
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{EventTypingStart, EventTypingStop}, types)
}

func TestGetEmailNilSafe(t *testing.T) {
	var r *RegisterRequest
	assert.Empty(t, r.GetEmail())
	assert.Equal(t, "b@example.com", (&LoginRequest{Email: "b@example.com"}).GetEmail())
}
