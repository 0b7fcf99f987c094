package main

import (
	"context"
	"strings"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/auth"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/middleware"

	"go.mongodb.org/mongo-driver/v2/bson"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// methods that don't require authentication
var publicMethods = map[string]bool{
	v1.FullMethodRegister: true,
	v1.FullMethodLogin:    true,
}

// context key type for storing auth claims in context
type authContextKey struct{}

// getClaimsFromContext extracts auth claims from the context, if present.
func getClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}

// userIDFromContext returns the authenticated user's id.
func userIDFromContext(ctx context.Context) (bson.ObjectID, error) {
	claims, ok := getClaimsFromContext(ctx)
	if !ok {
		return bson.ObjectID{}, status.Errorf(codes.Unauthenticated, "missing auth claims")
	}
	id, err := claims.ObjectID()
	if err != nil {
		return bson.ObjectID{}, status.Errorf(codes.Unauthenticated, "invalid user id in token")
	}
	return id, nil
}

// bearerToken strips an optional "Bearer " prefix.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return strings.TrimSpace(header)
}

// authenticate verifies the authorization metadata and returns ctx carrying the claims.
func authenticate(ctx context.Context, j *auth.JWTManager) (context.Context, error) {
	// extract Authorization header from metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unauthenticated, "missing metadata")
	}
	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, status.Errorf(codes.Unauthenticated, "missing authorization header")
	}

	token := bearerToken(authHeaders[0])
	if token == "" {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token")
	}

	claims, err := j.VerifyToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "unauthenticated: %v", err)
	}

	// attach claims into context for handlers
	return context.WithValue(ctx, authContextKey{}, claims), nil
}

// authUnaryInterceptor returns a UnaryServerInterceptor that enforces JWT authentication
// for all methods except the public ones (Register, Login).
func authUnaryInterceptor(j *auth.JWTManager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, j)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// authStreamInterceptor is the stream equivalent of authUnaryInterceptor.
func authStreamInterceptor(j *auth.JWTManager) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if publicMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), j)
		if err != nil {
			return err
		}
		return handler(srv, middleware.WrapServerStream(ss, ctx))
	}
}

// userKey buckets rate limits by authenticated user; it runs after authUnaryInterceptor.
func userKey(ctx context.Context, _ any) string {
	if claims, ok := getClaimsFromContext(ctx); ok {
		return "user:" + claims.UserID
	}
	return ""
}
