package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
	"github.com/fekuna/omnipos-production-service/internal/validation"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultBatchName = "Standard Recipe"

type recipeUseCase struct {
	repo      recipe.Repository
	tx        store.Transactor
	materials recipe.MaterialLookup
	logger    logger.ZapLogger
}

func NewRecipeUseCase(repo recipe.Repository, tx store.Transactor, materials recipe.MaterialLookup, log logger.ZapLogger) recipe.UseCase {
	return &recipeUseCase{
		repo:      repo,
		tx:        tx,
		materials: materials,
		logger:    log,
	}
}

func (uc *recipeUseCase) ResolveOrCreateTemplate(ctx context.Context, input *dto.ResolveTemplateInput) (*dto.ResolveTemplateResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var (
		specs []model.IngredientSpec
		set   recipe.IngredientSet
		yield decimal.Decimal
	)
	switch kind := input.Kind.(type) {
	case model.SimpleKind:
	case model.ManufacturedKind:
		if err := recipe.ValidateRecipe(kind.Yield, kind.Ingredients); err != nil {
			return nil, err
		}
		var err error
		specs, err = uc.resolveMaterials(ctx, input.StoreID, kind.Ingredients)
		if err != nil {
			return nil, err
		}
		if set, err = recipe.Canonicalize(specs); err != nil {
			return nil, err
		}
		yield = kind.Yield
	default:
		return nil, apperr.NewValidation("kind", "oneof", "must be simple or manufactured", nil)
	}

	hasIngredients := input.Kind.HasIngredients()
	result := &dto.ResolveTemplateResult{}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		candidates, _, err := uc.repo.FindTemplates(ctx, &dto.TemplateFilters{
			StoreID:        input.StoreID,
			Name:           strings.TrimSpace(input.Name),
			Unit:           strings.TrimSpace(input.Unit),
			HasIngredients: &hasIngredients,
		})
		if err != nil {
			return err
		}

		for i := range candidates {
			t := candidates[i]
			if !hasIngredients {
				result.Template = &t
				return nil
			}
			batches, err := uc.repo.ListBatches(ctx, t.ID, false)
			if err != nil {
				return err
			}
			for j := range batches {
				if recipe.SameRecipe(&batches[j], set, yield) {
					result.Template = &t
					result.Batch = &batches[j]
					return nil
				}
			}
		}

		now := time.Now()
		t := &model.RecipeTemplate{
			BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			StoreID:        input.StoreID,
			Name:           strings.TrimSpace(input.Name),
			Unit:           strings.TrimSpace(input.Unit),
			HasIngredients: hasIngredients,
			IsActive:       true,
		}
		if err := uc.repo.CreateTemplate(ctx, t); err != nil {
			return err
		}
		result.Template = t
		result.Created = true

		if !hasIngredients {
			return nil
		}

		name := strings.TrimSpace(input.BatchName)
		if name == "" {
			name = defaultBatchName
		}
		b := newBatch(t.ID, name, yield, specs, now)
		b.IsDefault = true
		if err := uc.repo.CreateBatch(ctx, b); err != nil {
			return err
		}
		result.Batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		uc.logger.Info("Created recipe template",
			zap.String("store_id", input.StoreID),
			zap.String("template_id", result.Template.ID),
			zap.Bool("has_ingredients", hasIngredients),
		)
	}
	return result, nil
}

func (uc *recipeUseCase) GetTemplate(ctx context.Context, storeID, id string) (*model.RecipeTemplate, error) {
	t, err := uc.template(ctx, storeID, id, false)
	if err != nil {
		return nil, err
	}
	t.Batches, err = uc.repo.ListBatches(ctx, t.ID, true)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *recipeUseCase) ListTemplates(ctx context.Context, filters *dto.TemplateFilters) ([]model.RecipeTemplate, int, error) {
	return uc.repo.FindTemplates(ctx, filters)
}

func (uc *recipeUseCase) AddBatch(ctx context.Context, input *dto.AddBatchInput) (*model.RecipeBatch, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := recipe.ValidateRecipe(input.Yield, input.Ingredients); err != nil {
		return nil, err
	}
	specs, err := uc.resolveMaterials(ctx, input.StoreID, input.Ingredients)
	if err != nil {
		return nil, err
	}

	var b *model.RecipeBatch
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := uc.template(ctx, input.StoreID, input.TemplateID, true)
		if err != nil {
			return err
		}
		if !t.HasIngredients {
			return apperr.NewValidation("template_id", "manufactured", "template is a simple good without a recipe", nil)
		}

		b = newBatch(t.ID, strings.TrimSpace(input.BatchName), input.Yield, specs, time.Now())
		if err := uc.repo.CreateBatch(ctx, b); err != nil {
			return err
		}
		if input.IsDefault {
			if err := uc.repo.SetDefaultBatch(ctx, t.ID, b.ID); err != nil {
				return err
			}
			b.IsDefault = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (uc *recipeUseCase) UpdateBatch(ctx context.Context, input *dto.UpdateBatchInput) (*model.RecipeBatch, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := recipe.ValidateRecipe(input.Yield, input.Ingredients); err != nil {
		return nil, err
	}
	specs, err := uc.resolveMaterials(ctx, input.StoreID, input.Ingredients)
	if err != nil {
		return nil, err
	}

	var b *model.RecipeBatch
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := uc.batch(ctx, input.StoreID, input.BatchID, true)
		if err != nil {
			return err
		}

		now := time.Now()
		fresh := newBatch(existing.TemplateID, strings.TrimSpace(input.BatchName), input.Yield, specs, now)
		existing.BatchName = fresh.BatchName
		existing.ProducibleQuantity = fresh.ProducibleQuantity
		existing.UpdatedAt = now
		existing.Ingredients = fresh.Ingredients
		for i := range existing.Ingredients {
			existing.Ingredients[i].BatchID = existing.ID
		}

		if err := uc.repo.UpdateBatch(ctx, existing); err != nil {
			return err
		}
		b = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (uc *recipeUseCase) SetDefaultBatch(ctx context.Context, storeID, templateID, batchID string) error {
	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.template(ctx, storeID, templateID, true); err != nil {
			return err
		}
		b, err := uc.repo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil || b.TemplateID != templateID {
			return apperr.NotFound("recipe batch", batchID)
		}
		if !b.IsActive {
			return apperr.NewValidation("batch_id", "active", "a deactivated batch cannot be the default", nil)
		}
		return uc.repo.SetDefaultBatch(ctx, templateID, batchID)
	})
}

func (uc *recipeUseCase) DeactivateBatch(ctx context.Context, storeID, batchID string) error {
	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := uc.batch(ctx, storeID, batchID, true)
		if err != nil {
			return err
		}

		active, err := uc.repo.ListBatches(ctx, b.TemplateID, false)
		if err != nil {
			return err
		}
		found := false
		for _, a := range active {
			if a.ID == batchID {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		if len(active) <= 1 {
			return &apperr.LastBatchError{TemplateID: b.TemplateID, BatchID: batchID}
		}
		return uc.repo.SetBatchActive(ctx, batchID, false)
	})
}

func (uc *recipeUseCase) GetBatch(ctx context.Context, storeID, batchID string) (*model.RecipeBatch, error) {
	return uc.batch(ctx, storeID, batchID, false)
}

func (uc *recipeUseCase) ListBatches(ctx context.Context, storeID, templateID string, includeInactive bool) ([]model.RecipeBatch, error) {
	if _, err := uc.template(ctx, storeID, templateID, false); err != nil {
		return nil, err
	}
	return uc.repo.ListBatches(ctx, templateID, includeInactive)
}

func (uc *recipeUseCase) SelectBatch(ctx context.Context, storeID, templateID string, explicitBatchID *string) (*model.RecipeBatch, error) {
	batches, err := uc.ListBatches(ctx, storeID, templateID, true)
	if err != nil {
		return nil, err
	}
	return recipe.SelectBatch(batches, explicitBatchID)
}

// template loads a template of storeID. With lock it holds the template row until the
// unit of work ends, which serializes batch maintenance per template.
func (uc *recipeUseCase) template(ctx context.Context, storeID, id string, lock bool) (*model.RecipeTemplate, error) {
	var (
		t   *model.RecipeTemplate
		err error
	)
	if lock {
		t, err = uc.repo.LockTemplate(ctx, id)
	} else {
		t, err = uc.repo.GetTemplate(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if t == nil || t.StoreID != storeID {
		return nil, apperr.NotFound("recipe template", id)
	}
	return t, nil
}

func (uc *recipeUseCase) batch(ctx context.Context, storeID, id string, lockTemplate bool) (*model.RecipeBatch, error) {
	b, err := uc.repo.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("recipe batch", id)
	}
	if _, err := uc.template(ctx, storeID, b.TemplateID, lockTemplate); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("recipe batch", id)
		}
		return nil, err
	}
	return b, nil
}

// resolveMaterials checks every ingredient references an active raw material of the
// store and fills in the material's unit where the caller left it empty.
func (uc *recipeUseCase) resolveMaterials(ctx context.Context, storeID string, specs []model.IngredientSpec) ([]model.IngredientSpec, error) {
	out := make([]model.IngredientSpec, len(specs))
	for i, spec := range specs {
		field := fmt.Sprintf("ingredients[%d].raw_material_id", i)
		m, err := uc.materials.GetRawMaterial(ctx, storeID, strings.TrimSpace(spec.RawMaterialID))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.NewValidation(field, "exists", "unknown raw material "+spec.RawMaterialID, nil)
			}
			return nil, err
		}
		if !m.IsActive {
			return nil, apperr.NewValidation(field, "active", "raw material "+m.Name+" is deactivated", nil)
		}
		out[i] = model.IngredientSpec{RawMaterialID: m.ID, Quantity: spec.Quantity, Unit: strings.TrimSpace(spec.Unit)}
		if out[i].Unit == "" {
			out[i].Unit = m.Unit
		}
	}
	return out, nil
}

func newBatch(templateID, name string, yield decimal.Decimal, specs []model.IngredientSpec, now time.Time) *model.RecipeBatch {
	b := &model.RecipeBatch{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		TemplateID:         templateID,
		BatchName:          name,
		ProducibleQuantity: yield,
		IsActive:           true,
		Ingredients:        make([]model.RecipeIngredient, len(specs)),
	}
	for i, spec := range specs {
		b.Ingredients[i] = model.RecipeIngredient{
			ID:             uuid.New().String(),
			BatchID:        b.ID,
			RawMaterialID:  spec.RawMaterialID,
			QuantityNeeded: spec.Quantity,
			Unit:           spec.Unit,
			Position:       i,
		}
	}
	return b
}
