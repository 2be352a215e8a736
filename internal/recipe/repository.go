package recipe

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

// Repository reads return (nil, nil) when a row does not exist. Batches are always
// returned with their ingredients ordered by position.
type Repository interface {
	CreateTemplate(ctx context.Context, t *model.RecipeTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error)
	// LockTemplate reads the template and holds its row lock until the unit of work ends.
	LockTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error)
	FindTemplates(ctx context.Context, filters *dto.TemplateFilters) ([]model.RecipeTemplate, int, error)

	CreateBatch(ctx context.Context, b *model.RecipeBatch) error
	GetBatch(ctx context.Context, id string) (*model.RecipeBatch, error)
	ListBatches(ctx context.Context, templateID string, includeInactive bool) ([]model.RecipeBatch, error)
	UpdateBatch(ctx context.Context, b *model.RecipeBatch) error
	SetDefaultBatch(ctx context.Context, templateID, batchID string) error
	SetBatchActive(ctx context.Context, batchID string, active bool) error
}
