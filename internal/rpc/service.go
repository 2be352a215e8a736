package rpc

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// UnaryFunc is one RPC of a Struct-typed service.
type UnaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Method builds the descriptor of a unary method. pick returns the implementation
// from the registered server value.
func Method(service, name string, pick func(srv interface{}) UnaryFunc) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			fn := pick(srv)
			if interceptor == nil {
				return fn(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Handle decodes req into a fresh In, runs call and encodes its result. Errors are
// logged and converted to gRPC statuses.
func Handle[In any](ctx context.Context, log logger.ZapLogger, method string, req *structpb.Struct, call func(ctx context.Context, in *In) (interface{}, error)) (*structpb.Struct, error) {
	in := new(In)
	if err := Decode(req, in); err != nil {
		return nil, Status(err)
	}
	out, err := call(ctx, in)
	if err != nil {
		if c := Code(err); c == codes.Internal || c == codes.Unavailable {
			log.Error("Request failed", zap.String("method", method), zap.Error(err))
		} else {
			log.Debug("Request rejected", zap.String("method", method), zap.Error(err))
		}
		return nil, Status(err)
	}
	res, err := Encode(out)
	if err != nil {
		log.Error("Failed to encode response", zap.String("method", method), zap.Error(err))
		return nil, Status(err)
	}
	return res, nil
}

// Caller returns the store and user the request acts for. A request without a store
// is rejected.
func Caller(ctx context.Context) (storeID, userID string, err error) {
	storeID = auth.GetStoreID(ctx)
	if storeID == "" {
		return "", "", status.Error(codes.Unauthenticated, "missing store")
	}
	return storeID, auth.GetUserID(ctx), nil
}

// List is the response shape of every paged listing.
type List struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}
