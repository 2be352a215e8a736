package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	storeHeader = "x-store-id"
	userHeader  = "x-user-id"
)

type ctxKey int

const (
	storeKey ctxKey = iota
	userKey
)

// Caller is the store and actor a request acts for. Access control already happened
// upstream; this service only scopes reads and writes by it.
type Caller struct {
	StoreID string
	UserID  string
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	ctx = context.WithValue(ctx, storeKey, c.StoreID)
	return context.WithValue(ctx, userKey, c.UserID)
}

func GetStoreID(ctx context.Context) string {
	if val, ok := ctx.Value(storeKey).(string); ok && val != "" {
		return val
	}
	return fromMetadata(ctx, storeHeader)
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userKey).(string); ok && val != "" {
		return val
	}
	return fromMetadata(ctx, userHeader)
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}

// ContextInterceptor copies the caller headers into the request context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = WithCaller(ctx, Caller{
			StoreID: fromMetadata(ctx, storeHeader),
			UserID:  fromMetadata(ctx, userHeader),
		})
		return handler(ctx, req)
	}
}
