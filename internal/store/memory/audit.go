package memory

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

func (s *Store) CreateProductionEvent(ctx context.Context, e *model.ProductionEvent) error {
	return s.write(ctx, func(st *state) error {
		st.events[e.ID] = copyEvent(*e)
		st.eventOrder = append(st.eventOrder, e.ID)
		return nil
	})
}

func (s *Store) GetProductionEvent(ctx context.Context, id string) (*model.ProductionEvent, error) {
	var out *model.ProductionEvent
	s.read(func(st *state) {
		if e, ok := st.events[id]; ok {
			c := copyEvent(e)
			out = &c
		}
	})
	return out, nil
}

func (s *Store) MarkReversed(ctx context.Context, eventID, reversalID string) error {
	return s.write(ctx, func(st *state) error {
		e, ok := st.events[eventID]
		if !ok {
			return apperr.NotFound("production event", eventID)
		}
		if e.ReversedBy != nil {
			return apperr.ErrAlreadyReversed
		}
		e.ReversedBy = &reversalID
		st.events[eventID] = e
		return nil
	})
}

func (s *Store) ListProductionEvents(ctx context.Context, f *dto.LedgerFilters) ([]model.ProductionEvent, int, error) {
	items := []model.ProductionEvent{}
	s.read(func(st *state) {
		for i := len(st.eventOrder) - 1; i >= 0; i-- {
			e := st.events[st.eventOrder[i]]
			if f.StoreID != "" && e.StoreID != f.StoreID {
				continue
			}
			if f.TemplateID != "" && e.TemplateID != f.TemplateID {
				continue
			}
			if f.Kind != "" && e.Kind != f.Kind {
				continue
			}
			if f.RawMaterialID != "" && !eventTouches(e, f.RawMaterialID) {
				continue
			}
			if !inRange(e.CreatedAt, f.StartDate, f.EndDate) {
				continue
			}
			items = append(items, copyEvent(e))
		}
	})
	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func eventTouches(e model.ProductionEvent, rawMaterialID string) bool {
	for _, l := range e.Lines {
		if l.RawMaterialID == rawMaterialID {
			return true
		}
	}
	return false
}

func (s *Store) CreatePurchase(ctx context.Context, p *model.PurchaseLog) error {
	return s.write(ctx, func(st *state) error {
		st.purchases = append(st.purchases, *p)
		return nil
	})
}

func (s *Store) ListPurchases(ctx context.Context, f *dto.LedgerFilters) ([]model.PurchaseLog, int, error) {
	items := []model.PurchaseLog{}
	s.read(func(st *state) {
		for i := len(st.purchases) - 1; i >= 0; i-- {
			p := st.purchases[i]
			if f.StoreID != "" && p.StoreID != f.StoreID {
				continue
			}
			if f.RawMaterialID != "" && p.RawMaterialID != f.RawMaterialID {
				continue
			}
			if !inRange(p.CreatedAt, f.StartDate, f.EndDate) {
				continue
			}
			items = append(items, p)
		}
	})
	return paginate(items, f.Page, f.PageSize), len(items), nil
}
