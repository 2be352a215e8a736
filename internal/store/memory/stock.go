package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/shopspring/decimal"
)

func stockKey(storeID, rawMaterialID string) string {
	return storeID + "|" + rawMaterialID
}

func (s *Store) CreateRawMaterial(ctx context.Context, m *model.RawMaterial) error {
	return s.write(ctx, func(st *state) error {
		st.rawMaterials[m.ID] = *m
		return nil
	})
}

func (s *Store) GetRawMaterial(ctx context.Context, id string) (*model.RawMaterial, error) {
	var out *model.RawMaterial
	s.read(func(st *state) {
		if m, ok := st.rawMaterials[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (s *Store) ListRawMaterials(ctx context.Context, f *dto.RawMaterialFilters) ([]model.RawMaterial, error) {
	items := []model.RawMaterial{}
	s.read(func(st *state) {
		for _, m := range st.rawMaterials {
			if m.StoreID != f.StoreID {
				continue
			}
			if !f.IncludeInactive && !m.IsActive {
				continue
			}
			if f.Search != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(f.Search)) {
				continue
			}
			items = append(items, m)
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) SetRawMaterialActive(ctx context.Context, id string, active bool) error {
	return s.write(ctx, func(st *state) error {
		m, ok := st.rawMaterials[id]
		if !ok {
			return apperr.NotFound("raw material", id)
		}
		m.IsActive = active
		m.UpdatedAt = time.Now()
		st.rawMaterials[id] = m
		return nil
	})
}

func (s *Store) CreateRawMaterialStock(ctx context.Context, rs *model.RawMaterialStock) error {
	return s.write(ctx, func(st *state) error {
		st.rawStocks[stockKey(rs.StoreID, rs.RawMaterialID)] = *rs
		return nil
	})
}

func (s *Store) GetRawMaterialStock(ctx context.Context, storeID, rawMaterialID string) (*model.RawMaterialStock, error) {
	var out *model.RawMaterialStock
	s.read(func(st *state) {
		if rs, ok := st.rawStocks[stockKey(storeID, rawMaterialID)]; ok {
			out = &rs
		}
	})
	return out, nil
}

// GetRawMaterialStocks ignores forUpdate: units of work are already serialized.
func (s *Store) GetRawMaterialStocks(ctx context.Context, storeID string, rawMaterialIDs []string, forUpdate bool) ([]model.RawMaterialStock, error) {
	items := []model.RawMaterialStock{}
	s.read(func(st *state) {
		for _, id := range rawMaterialIDs {
			if rs, ok := st.rawStocks[stockKey(storeID, id)]; ok {
				items = append(items, rs)
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].RawMaterialID < items[j].RawMaterialID })
	return items, nil
}

func (s *Store) ListRawMaterialStock(ctx context.Context, storeID string) ([]model.RawMaterialStock, error) {
	items := []model.RawMaterialStock{}
	s.read(func(st *state) {
		for _, rs := range st.rawStocks {
			if rs.StoreID == storeID {
				items = append(items, rs)
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].RawMaterialID < items[j].RawMaterialID })
	return items, nil
}

func (s *Store) ApplyRawMaterialDelta(ctx context.Context, storeID, rawMaterialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := s.write(ctx, func(st *state) error {
		key := stockKey(storeID, rawMaterialID)
		rs, ok := st.rawStocks[key]
		if !ok {
			return apperr.NotFound("raw material stock", rawMaterialID)
		}
		next := rs.Quantity.Add(delta)
		if next.IsNegative() {
			return apperr.ErrInsufficientStock
		}
		rs.Quantity = next
		rs.UpdatedAt = time.Now()
		st.rawStocks[key] = rs
		after = next
		return nil
	})
	return after, err
}

func (s *Store) SetLastPurchasePrice(ctx context.Context, storeID, rawMaterialID string, price decimal.Decimal) error {
	return s.write(ctx, func(st *state) error {
		key := stockKey(storeID, rawMaterialID)
		rs, ok := st.rawStocks[key]
		if !ok {
			return apperr.NotFound("raw material stock", rawMaterialID)
		}
		rs.LastPurchasePrice = decimal.NewNullDecimal(price)
		st.rawStocks[key] = rs
		return nil
	})
}

func (s *Store) CreateProductStock(ctx context.Context, p *model.ProductStock) error {
	return s.write(ctx, func(st *state) error {
		if p.RecipeTemplateID != nil {
			for _, existing := range st.products {
				if existing.StoreID == p.StoreID && existing.RecipeTemplateID != nil && *existing.RecipeTemplateID == *p.RecipeTemplateID {
					return nil
				}
			}
		}
		st.products[p.ID] = copyProduct(*p)
		return nil
	})
}

func (s *Store) GetProductStock(ctx context.Context, id string) (*model.ProductStock, error) {
	var out *model.ProductStock
	s.read(func(st *state) {
		if p, ok := st.products[id]; ok {
			c := copyProduct(p)
			out = &c
		}
	})
	return out, nil
}

func (s *Store) FindProductStockByTemplate(ctx context.Context, storeID, templateID string) (*model.ProductStock, error) {
	var out *model.ProductStock
	s.read(func(st *state) {
		for _, p := range st.products {
			if p.StoreID == storeID && p.RecipeTemplateID != nil && *p.RecipeTemplateID == templateID {
				c := copyProduct(p)
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (s *Store) ListProductStock(ctx context.Context, storeID string) ([]model.ProductStock, error) {
	items := []model.ProductStock{}
	s.read(func(st *state) {
		for _, p := range st.products {
			if p.StoreID == storeID {
				items = append(items, copyProduct(p))
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) ApplyProductDelta(ctx context.Context, storeID, productStockID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := s.write(ctx, func(st *state) error {
		p, ok := st.products[productStockID]
		if !ok || p.StoreID != storeID {
			return apperr.NotFound("product stock", productStockID)
		}
		next := p.Quantity.Add(delta)
		if next.IsNegative() {
			return apperr.ErrInsufficientStock
		}
		p.Quantity = next
		p.UpdatedAt = time.Now()
		st.products[productStockID] = p
		after = next
		return nil
	})
	return after, err
}

func (s *Store) SetProductLastBatch(ctx context.Context, productStockID, batchID string) error {
	return s.write(ctx, func(st *state) error {
		p, ok := st.products[productStockID]
		if !ok {
			return apperr.NotFound("product stock", productStockID)
		}
		p.LastBatchID = &batchID
		st.products[productStockID] = p
		return nil
	})
}

func (s *Store) LogMovement(ctx context.Context, m *model.StockMovement) error {
	return s.write(ctx, func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (s *Store) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	items := []model.StockMovement{}
	s.read(func(st *state) {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.StoreID != "" && m.StoreID != f.StoreID {
				continue
			}
			if f.StockKind != "" && m.StockKind != f.StockKind {
				continue
			}
			if f.StockID != "" && m.StockID != f.StockID {
				continue
			}
			if f.MovementType != "" && m.MovementType != f.MovementType {
				continue
			}
			if f.ReferenceID != "" && (m.ReferenceID == nil || *m.ReferenceID != f.ReferenceID) {
				continue
			}
			if !inRange(m.CreatedAt, f.StartDate, f.EndDate) {
				continue
			}
			items = append(items, m)
		}
	})
	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && !t.Before(*end) {
		return false
	}
	return true
}
