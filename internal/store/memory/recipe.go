package memory

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

func (s *Store) CreateTemplate(ctx context.Context, t *model.RecipeTemplate) error {
	return s.write(ctx, func(st *state) error {
		c := *t
		c.Batches = nil
		st.templates[t.ID] = c
		st.templateOrder = append(st.templateOrder, t.ID)
		return nil
	})
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error) {
	var out *model.RecipeTemplate
	s.read(func(st *state) {
		if t, ok := st.templates[id]; ok {
			out = &t
		}
	})
	return out, nil
}

func (s *Store) LockTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error) {
	return s.GetTemplate(ctx, id)
}

func (s *Store) FindTemplates(ctx context.Context, f *dto.TemplateFilters) ([]model.RecipeTemplate, int, error) {
	items := []model.RecipeTemplate{}
	s.read(func(st *state) {
		for _, id := range st.templateOrder {
			t := st.templates[id]
			if f.StoreID != "" && t.StoreID != f.StoreID {
				continue
			}
			if f.Name != "" && !strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(f.Name)) {
				continue
			}
			if f.Unit != "" && !strings.EqualFold(strings.TrimSpace(t.Unit), strings.TrimSpace(f.Unit)) {
				continue
			}
			if f.HasIngredients != nil && t.HasIngredients != *f.HasIngredients {
				continue
			}
			if !f.IncludeInactive && !t.IsActive {
				continue
			}
			items = append(items, t)
		}
	})
	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func (s *Store) CreateBatch(ctx context.Context, b *model.RecipeBatch) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.templates[b.TemplateID]; !ok {
			return apperr.NotFound("recipe template", b.TemplateID)
		}
		st.batches[b.ID] = copyBatch(*b)
		st.batchOrder = append(st.batchOrder, b.ID)
		return nil
	})
}

func (s *Store) GetBatch(ctx context.Context, id string) (*model.RecipeBatch, error) {
	var out *model.RecipeBatch
	s.read(func(st *state) {
		if b, ok := st.batches[id]; ok {
			c := copyBatch(b)
			out = &c
		}
	})
	return out, nil
}

func (s *Store) ListBatches(ctx context.Context, templateID string, includeInactive bool) ([]model.RecipeBatch, error) {
	items := []model.RecipeBatch{}
	s.read(func(st *state) {
		for _, id := range st.batchOrder {
			b := st.batches[id]
			if b.TemplateID != templateID {
				continue
			}
			if !includeInactive && !b.IsActive {
				continue
			}
			items = append(items, copyBatch(b))
		}
	})
	return items, nil
}

func (s *Store) UpdateBatch(ctx context.Context, b *model.RecipeBatch) error {
	return s.write(ctx, func(st *state) error {
		existing, ok := st.batches[b.ID]
		if !ok {
			return apperr.NotFound("recipe batch", b.ID)
		}
		existing.BatchName = b.BatchName
		existing.ProducibleQuantity = b.ProducibleQuantity
		existing.Ingredients = append([]model.RecipeIngredient(nil), b.Ingredients...)
		existing.UpdatedAt = b.UpdatedAt
		st.batches[b.ID] = existing
		return nil
	})
}

func (s *Store) SetDefaultBatch(ctx context.Context, templateID, batchID string) error {
	return s.write(ctx, func(st *state) error {
		target, ok := st.batches[batchID]
		if !ok || target.TemplateID != templateID {
			return apperr.NotFound("recipe batch", batchID)
		}
		now := time.Now()
		for id, b := range st.batches {
			if b.TemplateID != templateID {
				continue
			}
			b.IsDefault = id == batchID
			b.UpdatedAt = now
			st.batches[id] = b
		}
		return nil
	})
}

func (s *Store) SetBatchActive(ctx context.Context, batchID string, active bool) error {
	return s.write(ctx, func(st *state) error {
		b, ok := st.batches[batchID]
		if !ok {
			return apperr.NotFound("recipe batch", batchID)
		}
		b.IsActive = active
		if !active {
			b.IsDefault = false
		}
		b.UpdatedAt = time.Now()
		st.batches[batchID] = b
		return nil
	})
}
