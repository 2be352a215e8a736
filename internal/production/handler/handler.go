package handler

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/fekuna/omnipos-production-service/internal/rpc"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.production.v1.ProductionService"

type ProductionServer interface {
	Produce(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetShortageReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReverseProduction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RegisterProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type ProductionHandler struct {
	uc     production.UseCase
	logger logger.ZapLogger
}

func NewProductionHandler(uc production.UseCase, log logger.ZapLogger) *ProductionHandler {
	return &ProductionHandler{
		uc:     uc,
		logger: log,
	}
}

func method(name string, pick func(s ProductionServer) rpc.UnaryFunc) grpc.MethodDesc {
	return rpc.Method(serviceName, name, func(srv interface{}) rpc.UnaryFunc { return pick(srv.(ProductionServer)) })
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProductionServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Produce", func(s ProductionServer) rpc.UnaryFunc { return s.Produce }),
		method("GetShortageReport", func(s ProductionServer) rpc.UnaryFunc { return s.GetShortageReport }),
		method("ReverseProduction", func(s ProductionServer) rpc.UnaryFunc { return s.ReverseProduction }),
		method("RegisterProduct", func(s ProductionServer) rpc.UnaryFunc { return s.RegisterProduct }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/production/v1/production.proto",
}

func Register(s grpc.ServiceRegistrar, h ProductionServer) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *ProductionHandler) Produce(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "Produce", req, func(ctx context.Context, in *dto.ProduceInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.Produce(ctx, in)
	})
}

func (h *ProductionHandler) GetShortageReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "GetShortageReport", req, func(ctx context.Context, in *dto.ShortageInput) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		report, err := h.uc.GetShortageReport(ctx, in)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"report": report, "feasible": report.Feasible()}, nil
	})
}

func (h *ProductionHandler) ReverseProduction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ReverseProduction", req, func(ctx context.Context, in *dto.ReverseInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.ReverseProduction(ctx, in)
	})
}

func (h *ProductionHandler) RegisterProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "RegisterProduct", req, func(ctx context.Context, in *dto.RegisterProductInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.RegisterProduct(ctx, in)
	})
}
