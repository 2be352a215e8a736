package recipe

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

type UseCase interface {
	ResolveOrCreateTemplate(ctx context.Context, input *dto.ResolveTemplateInput) (*dto.ResolveTemplateResult, error)
	GetTemplate(ctx context.Context, storeID, id string) (*model.RecipeTemplate, error)
	ListTemplates(ctx context.Context, filters *dto.TemplateFilters) ([]model.RecipeTemplate, int, error)

	AddBatch(ctx context.Context, input *dto.AddBatchInput) (*model.RecipeBatch, error)
	UpdateBatch(ctx context.Context, input *dto.UpdateBatchInput) (*model.RecipeBatch, error)
	SetDefaultBatch(ctx context.Context, storeID, templateID, batchID string) error
	DeactivateBatch(ctx context.Context, storeID, batchID string) error
	GetBatch(ctx context.Context, storeID, batchID string) (*model.RecipeBatch, error)
	ListBatches(ctx context.Context, storeID, templateID string, includeInactive bool) ([]model.RecipeBatch, error)
	SelectBatch(ctx context.Context, storeID, templateID string, explicitBatchID *string) (*model.RecipeBatch, error)
}

// MaterialLookup resolves raw materials referenced by ingredients.
type MaterialLookup interface {
	GetRawMaterial(ctx context.Context, storeID, id string) (*model.RawMaterial, error)
}
