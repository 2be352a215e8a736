package handler

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/rpc"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.production.v1.StockService"

type StockServer interface {
	CreateRawMaterial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRawMaterials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeactivateRawMaterial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Adjust(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RecordPurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RestockProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		logger: log,
	}
}

func method(name string, pick func(s StockServer) rpc.UnaryFunc) grpc.MethodDesc {
	return rpc.Method(serviceName, name, func(srv interface{}) rpc.UnaryFunc { return pick(srv.(StockServer)) })
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StockServer)(nil),
	Methods: []grpc.MethodDesc{
		method("CreateRawMaterial", func(s StockServer) rpc.UnaryFunc { return s.CreateRawMaterial }),
		method("ListRawMaterials", func(s StockServer) rpc.UnaryFunc { return s.ListRawMaterials }),
		method("DeactivateRawMaterial", func(s StockServer) rpc.UnaryFunc { return s.DeactivateRawMaterial }),
		method("GetQuantity", func(s StockServer) rpc.UnaryFunc { return s.GetQuantity }),
		method("Adjust", func(s StockServer) rpc.UnaryFunc { return s.Adjust }),
		method("RecordPurchase", func(s StockServer) rpc.UnaryFunc { return s.RecordPurchase }),
		method("RestockProduct", func(s StockServer) rpc.UnaryFunc { return s.RestockProduct }),
		method("ListStock", func(s StockServer) rpc.UnaryFunc { return s.ListStock }),
		method("ListMovements", func(s StockServer) rpc.UnaryFunc { return s.ListMovements }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/production/v1/stock.proto",
}

func Register(s grpc.ServiceRegistrar, h StockServer) {
	s.RegisterService(&ServiceDesc, h)
}

type idRequest struct {
	ID string `json:"id"`
}

func (h *StockHandler) CreateRawMaterial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "CreateRawMaterial", req, func(ctx context.Context, in *dto.CreateRawMaterialInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.CreateRawMaterial(ctx, in)
	})
}

func (h *StockHandler) ListRawMaterials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListRawMaterials", req, func(ctx context.Context, in *dto.RawMaterialFilters) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		items, err := h.uc.ListRawMaterials(ctx, in)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: len(items)}, nil
	})
}

func (h *StockHandler) DeactivateRawMaterial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "DeactivateRawMaterial", req, func(ctx context.Context, in *idRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.uc.DeactivateRawMaterial(ctx, storeID, in.ID); err != nil {
			return nil, err
		}
		return struct{}{}, nil
	})
}

func (h *StockHandler) GetQuantity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "GetQuantity", req, func(ctx context.Context, in *model.StockRef) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		q, err := h.uc.GetQuantity(ctx, storeID, *in)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"kind": in.Kind, "id": in.ID, "quantity": q}, nil
	})
}

func (h *StockHandler) Adjust(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "Adjust", req, func(ctx context.Context, in *dto.AdjustInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		if in.MovementType == "" {
			in.MovementType = model.MovementAdjustment
		}
		return h.uc.Adjust(ctx, in)
	})
}

func (h *StockHandler) RecordPurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "RecordPurchase", req, func(ctx context.Context, in *dto.PurchaseInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.RecordPurchase(ctx, in)
	})
}

func (h *StockHandler) RestockProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "RestockProduct", req, func(ctx context.Context, in *dto.RestockProductInput) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID, in.UserID = storeID, userID
		return h.uc.RestockProduct(ctx, in)
	})
}

func (h *StockHandler) ListStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListStock", req, func(ctx context.Context, _ *struct{}) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		return h.uc.ListStock(ctx, storeID)
	})
}

func (h *StockHandler) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListMovements", req, func(ctx context.Context, in *dto.MovementFilters) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		items, total, err := h.uc.ListMovements(ctx, in)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: total}, nil
	})
}
