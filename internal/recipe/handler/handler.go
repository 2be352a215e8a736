package handler

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/rpc"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.production.v1.RecipeService"

type RecipeServer interface {
	ResolveTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTemplates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetDefaultBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeactivateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type RecipeHandler struct {
	uc     recipe.UseCase
	logger logger.ZapLogger
}

func NewRecipeHandler(uc recipe.UseCase, log logger.ZapLogger) *RecipeHandler {
	return &RecipeHandler{
		uc:     uc,
		logger: log,
	}
}

func method(name string, pick func(s RecipeServer) rpc.UnaryFunc) grpc.MethodDesc {
	return rpc.Method(serviceName, name, func(srv interface{}) rpc.UnaryFunc { return pick(srv.(RecipeServer)) })
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RecipeServer)(nil),
	Methods: []grpc.MethodDesc{
		method("ResolveTemplate", func(s RecipeServer) rpc.UnaryFunc { return s.ResolveTemplate }),
		method("GetTemplate", func(s RecipeServer) rpc.UnaryFunc { return s.GetTemplate }),
		method("ListTemplates", func(s RecipeServer) rpc.UnaryFunc { return s.ListTemplates }),
		method("AddBatch", func(s RecipeServer) rpc.UnaryFunc { return s.AddBatch }),
		method("UpdateBatch", func(s RecipeServer) rpc.UnaryFunc { return s.UpdateBatch }),
		method("SetDefaultBatch", func(s RecipeServer) rpc.UnaryFunc { return s.SetDefaultBatch }),
		method("DeactivateBatch", func(s RecipeServer) rpc.UnaryFunc { return s.DeactivateBatch }),
		method("ListBatches", func(s RecipeServer) rpc.UnaryFunc { return s.ListBatches }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/production/v1/recipe.proto",
}

func Register(s grpc.ServiceRegistrar, h RecipeServer) {
	s.RegisterService(&ServiceDesc, h)
}

// resolveRequest is the wire form of ResolveTemplateInput: has_ingredients picks the
// recipe kind, yield and ingredients only apply to manufactured goods.
type resolveRequest struct {
	dto.ResolveTemplateInput
	HasIngredients bool                   `json:"has_ingredients"`
	Yield          decimal.Decimal        `json:"yield"`
	Ingredients    []model.IngredientSpec `json:"ingredients"`
}

type batchRequest struct {
	TemplateID      string `json:"template_id"`
	BatchID         string `json:"batch_id"`
	IncludeInactive bool   `json:"include_inactive"`
}

func (r *resolveRequest) kind() (model.RecipeKind, error) {
	if !r.HasIngredients {
		if len(r.Ingredients) > 0 {
			return nil, apperr.NewValidation("ingredients", "excluded_unless", "simple goods have no ingredients", nil)
		}
		return model.SimpleKind{}, nil
	}
	return model.ManufacturedKind{Ingredients: r.Ingredients, Yield: r.Yield}, nil
}

func (h *RecipeHandler) ResolveTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ResolveTemplate", req, func(ctx context.Context, in *resolveRequest) (interface{}, error) {
		storeID, userID, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		kind, err := in.kind()
		if err != nil {
			return nil, err
		}
		input := in.ResolveTemplateInput
		input.StoreID, input.UserID, input.Kind = storeID, userID, kind
		return h.uc.ResolveOrCreateTemplate(ctx, &input)
	})
}

func (h *RecipeHandler) GetTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "GetTemplate", req, func(ctx context.Context, in *batchRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		return h.uc.GetTemplate(ctx, storeID, in.TemplateID)
	})
}

func (h *RecipeHandler) ListTemplates(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListTemplates", req, func(ctx context.Context, in *dto.TemplateFilters) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		items, total, err := h.uc.ListTemplates(ctx, in)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: total}, nil
	})
}

func (h *RecipeHandler) AddBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "AddBatch", req, func(ctx context.Context, in *dto.AddBatchInput) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		return h.uc.AddBatch(ctx, in)
	})
}

func (h *RecipeHandler) UpdateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "UpdateBatch", req, func(ctx context.Context, in *dto.UpdateBatchInput) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		in.StoreID = storeID
		return h.uc.UpdateBatch(ctx, in)
	})
}

func (h *RecipeHandler) SetDefaultBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "SetDefaultBatch", req, func(ctx context.Context, in *batchRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.uc.SetDefaultBatch(ctx, storeID, in.TemplateID, in.BatchID); err != nil {
			return nil, err
		}
		return h.uc.GetBatch(ctx, storeID, in.BatchID)
	})
}

func (h *RecipeHandler) DeactivateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "DeactivateBatch", req, func(ctx context.Context, in *batchRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.uc.DeactivateBatch(ctx, storeID, in.BatchID); err != nil {
			return nil, err
		}
		return struct{}{}, nil
	})
}

func (h *RecipeHandler) ListBatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Handle(ctx, h.logger, "ListBatches", req, func(ctx context.Context, in *batchRequest) (interface{}, error) {
		storeID, _, err := rpc.Caller(ctx)
		if err != nil {
			return nil, err
		}
		items, err := h.uc.ListBatches(ctx, storeID, in.TemplateID, in.IncludeInactive)
		if err != nil {
			return nil, err
		}
		return rpc.List{Items: items, Total: len(items)}, nil
	})
}
