package handler

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/audit"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/rpc"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.production.v1.AuditService"

type AuditServer interface {
	GetProductionEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProductionEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListPurchases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type AuditHandler struct {
	uc     audit.UseCase
	logger logger.ZapLogger
}

func NewAuditHandler(uc audit.UseCase, log logger.ZapLogger) *AuditHandler {
	return &AuditHandler{
		uc:     uc,
		logger: log,
	}
}

func method(name string, pick func(s AuditServer) rpc.UnaryFunc) grpc.MethodDesc {
	return rpc.Method(serviceName, name, func(srv interface{}) rpc.UnaryFunc { return pick(srv.(AuditServer)) })
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuditServer)(nil),
	Methods: []grpc.MethodDesc{
		method("GetProductionEvent", func(s AuditServer) rpc.UnaryFunc { return s.GetProductionEvent }),
		method("ListProductionEvents", func(s AuditServer) rpc.UnaryFunc { return s.ListProductionEvents }),
		method("ListPurchases", func(s AuditServer) rpc.UnaryFunc { return s.ListPurchases }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/production/v1/audit.proto",
}

func Register(s grpc.ServiceRegistrar, h AuditServer) {
	s.RegisterService(&ServiceDesc, h)
}

type eventRequest struct {
	ID string `json:"id"`
}

func (h *AuditHandler) GetProductionEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "GetProductionEvent", req, func(ctx context.Context, in *eventRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		return h.uc.GetProductionEvent(ctx, storeID, in.ID)
	})
}

func (h *AuditHandler) ListProductionEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListProductionEvents", req, func(ctx context.Context, in *dto.LedgerFilters) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		items, total, err := h.uc.ListProductionEvents(ctx, in)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: total}, nil
	})
}

func (h *AuditHandler) ListPurchases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListPurchases", req, func(ctx context.Context, in *dto.LedgerFilters) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		items, total, err := h.uc.ListPurchases(ctx, in)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: total}, nil
	})
}
