// Package memory is a transactional in-memory implementation of every repository
// contract. Units of work are serialized and roll back by restoring a snapshot.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

var (
	_ store.Transactor  = (*Store)(nil)
	_ stock.Repository  = (*Store)(nil)
	_ recipe.Repository = (*Store)(nil)
	_ audit.Repository  = (*Store)(nil)
)

var errInjectedConflict = errors.New("memory: injected serialization failure")

type txKey struct{}

type Store struct {
	txMu sync.Mutex // held for the whole unit of work
	mu   sync.Mutex // guards data and conflicts

	data      *state
	conflicts int
	commits   int
}

type state struct {
	rawMaterials map[string]model.RawMaterial
	rawStocks    map[string]model.RawMaterialStock // key: store|material
	products     map[string]model.ProductStock
	movements    []model.StockMovement

	templates     map[string]model.RecipeTemplate
	templateOrder []string
	batches       map[string]model.RecipeBatch
	batchOrder    []string

	events     map[string]model.ProductionEvent
	eventOrder []string
	purchases  []model.PurchaseLog
}

func New() *Store {
	return &Store{data: newState()}
}

func newState() *state {
	return &state{
		rawMaterials: map[string]model.RawMaterial{},
		rawStocks:    map[string]model.RawMaterialStock{},
		products:     map[string]model.ProductStock{},
		templates:    map[string]model.RecipeTemplate{},
		batches:      map[string]model.RecipeBatch{},
		events:       map[string]model.ProductionEvent{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.rawMaterials {
		c.rawMaterials[k] = v
	}
	for k, v := range s.rawStocks {
		c.rawStocks[k] = v
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	c.movements = append(c.movements, s.movements...)
	for k, v := range s.templates {
		c.templates[k] = v
	}
	c.templateOrder = append(c.templateOrder, s.templateOrder...)
	for k, v := range s.batches {
		c.batches[k] = copyBatch(v)
	}
	c.batchOrder = append(c.batchOrder, s.batchOrder...)
	for k, v := range s.events {
		c.events[k] = copyEvent(v)
	}
	c.eventOrder = append(c.eventOrder, s.eventOrder...)
	c.purchases = append(c.purchases, s.purchases...)
	return c
}

// InjectConflicts makes the next n units of work fail with a concurrency conflict
// after their body ran, as a serialization failure at commit would.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// Commits returns the number of committed units of work.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && s.conflicts > 0 {
		s.conflicts--
		err = &apperr.ConcurrencyConflictError{Err: errInjectedConflict}
	}
	if err != nil {
		s.data = snapshot
		return err
	}
	s.commits++
	return nil
}

// write applies fn to the data. Outside a unit of work it waits for running units first.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func copyProduct(p model.ProductStock) model.ProductStock {
	if p.RecipeTemplateID != nil {
		v := *p.RecipeTemplateID
		p.RecipeTemplateID = &v
	}
	if p.LastBatchID != nil {
		v := *p.LastBatchID
		p.LastBatchID = &v
	}
	return p
}

func copyBatch(b model.RecipeBatch) model.RecipeBatch {
	b.Ingredients = append([]model.RecipeIngredient(nil), b.Ingredients...)
	return b
}

func copyEvent(e model.ProductionEvent) model.ProductionEvent {
	e.Lines = append([]model.ProductionEventLine(nil), e.Lines...)
	if e.ReversedBy != nil {
		v := *e.ReversedBy
		e.ReversedBy = &v
	}
	return e
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
