package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	auditdto "github.com/fekuna/omnipos-production-service/internal/audit/dto"
	auditusecase "github.com/fekuna/omnipos-production-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/shopspring/decimal"
)

const storeID = "store-1"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func setup(t *testing.T, cache stock.SnapshotCache) (stock.UseCase, *memory.Store) {
	t.Helper()
	mem := memory.New()
	log := logger.NewNop()
	auditUC := auditusecase.NewAuditUseCase(mem, nil, log)
	if cache == nil {
		return NewStockUseCase(mem, mem, auditUC, nil, 0, log), mem
	}
	return NewStockUseCase(mem, mem, auditUC, cache, time.Minute, log), mem
}

func createMaterial(t *testing.T, uc stock.UseCase, name, unit, opening string) *model.RawMaterial {
	t.Helper()
	m, err := uc.CreateRawMaterial(context.Background(), &dto.CreateRawMaterialInput{
		StoreID:         storeID,
		Name:            name,
		Unit:            unit,
		OpeningQuantity: dec(opening),
		UserID:          "user-1",
	})
	if err != nil {
		t.Fatalf("Failed to create raw material: %v", err)
	}
	return m
}

func quantity(t *testing.T, uc stock.UseCase, kind model.StockKind, id string) decimal.Decimal {
	t.Helper()
	q, err := uc.GetQuantity(context.Background(), storeID, model.StockRef{Kind: kind, ID: id})
	if err != nil {
		t.Fatalf("Failed to read quantity: %v", err)
	}
	return q
}

func TestCreateRawMaterialOpeningBalance(t *testing.T) {
	uc, _ := setup(t, nil)
	ctx := context.Background()

	m := createMaterial(t, uc, "Milk", "l", "12.5")

	if got := quantity(t, uc, model.StockKindRawMaterial, m.ID); !got.Equal(dec("12.5")) {
		t.Errorf("Expected 12.5 on hand, got %s", got)
	}

	movements, total, err := uc.ListMovements(ctx, &dto.MovementFilters{StoreID: storeID, StockID: m.ID})
	if err != nil {
		t.Fatalf("Failed to list movements: %v", err)
	}
	if total != 1 || len(movements) != 1 {
		t.Fatalf("Expected 1 opening movement, got %d", total)
	}
	if !movements[0].QuantityBefore.IsZero() || !movements[0].QuantityAfter.Equal(dec("12.5")) {
		t.Errorf("Expected 0 -> 12.5, got %s -> %s", movements[0].QuantityBefore, movements[0].QuantityAfter)
	}

	empty := createMaterial(t, uc, "Sugar", "kg", "0")
	movements, _, _ = uc.ListMovements(ctx, &dto.MovementFilters{StoreID: storeID, StockID: empty.ID})
	if len(movements) != 0 {
		t.Errorf("Expected no movement for a zero opening balance, got %d", len(movements))
	}
}

func TestAdjustNeverGoesNegative(t *testing.T) {
	uc, _ := setup(t, nil)
	ctx := context.Background()
	m := createMaterial(t, uc, "Milk", "l", "3")

	_, err := uc.Adjust(ctx, &dto.AdjustInput{
		StoreID: storeID,
		Kind:    model.StockKindRawMaterial,
		StockID: m.ID,
		Delta:   dec("-5"),
	})

	var insufficient *apperr.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	line := insufficient.Report.Lines[0]
	if !line.Deficit.Equal(dec("2")) {
		t.Errorf("Expected deficit 2, got %s", line.Deficit)
	}
	if got := quantity(t, uc, model.StockKindRawMaterial, m.ID); !got.Equal(dec("3")) {
		t.Errorf("Expected quantity to stay 3, got %s", got)
	}

	movement, err := uc.Adjust(ctx, &dto.AdjustInput{
		StoreID: storeID,
		Kind:    model.StockKindRawMaterial,
		StockID: m.ID,
		Delta:   dec("-3"),
		Notes:   "spilled",
	})
	if err != nil {
		t.Fatalf("Failed to drain stock: %v", err)
	}
	if !movement.QuantityAfter.IsZero() {
		t.Errorf("Expected 0 after draining, got %s", movement.QuantityAfter)
	}
	if movement.MovementType != model.MovementAdjustment {
		t.Errorf("Expected adjustment movement, got %s", movement.MovementType)
	}
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	uc, _ := setup(t, nil)
	m := createMaterial(t, uc, "Milk", "l", "3")

	_, err := uc.Adjust(context.Background(), &dto.AdjustInput{
		StoreID: storeID,
		Kind:    model.StockKindRawMaterial,
		StockID: m.ID,
		Delta:   decimal.Zero,
	})
	if !errors.Is(err, apperr.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestRecordPurchase(t *testing.T) {
	uc, mem := setup(t, nil)
	ctx := context.Background()
	m := createMaterial(t, uc, "Tea Powder", "g", "100")

	entry, err := uc.RecordPurchase(ctx, &dto.PurchaseInput{
		StoreID:       storeID,
		RawMaterialID: m.ID,
		Quantity:      dec("500"),
		UnitPrice:     dec("0.2"),
		Supplier:      "Leaf & Co",
		UserID:        "user-1",
	})
	if err != nil {
		t.Fatalf("Failed to record purchase: %v", err)
	}
	if !entry.TotalCost.Equal(dec("100")) {
		t.Errorf("Expected total cost 100, got %s", entry.TotalCost)
	}
	if entry.Unit != "g" {
		t.Errorf("Expected unit g, got %s", entry.Unit)
	}
	if got := quantity(t, uc, model.StockKindRawMaterial, m.ID); !got.Equal(dec("600")) {
		t.Errorf("Expected 600 on hand, got %s", got)
	}

	rs, err := mem.GetRawMaterialStock(ctx, storeID, m.ID)
	if err != nil {
		t.Fatalf("Failed to read stock row: %v", err)
	}
	if !rs.LastPurchasePrice.Valid || !rs.LastPurchasePrice.Decimal.Equal(dec("0.2")) {
		t.Errorf("Expected last purchase price 0.2, got %v", rs.LastPurchasePrice)
	}

	logs, total, err := mem.ListPurchases(ctx, &auditdto.LedgerFilters{StoreID: storeID})
	if err != nil {
		t.Fatalf("Failed to list purchases: %v", err)
	}
	if total != 1 || logs[0].ID != entry.ID {
		t.Errorf("Expected the purchase in the ledger, got %d entries", total)
	}

	movements, _, _ := uc.ListMovements(ctx, &dto.MovementFilters{StoreID: storeID, ReferenceID: entry.ID})
	if len(movements) != 1 || movements[0].MovementType != model.MovementPurchase {
		t.Errorf("Expected one purchase movement referencing the log entry, got %d", len(movements))
	}
}

func TestRecordPurchaseRejectsInactiveMaterial(t *testing.T) {
	uc, _ := setup(t, nil)
	ctx := context.Background()
	m := createMaterial(t, uc, "Milk", "l", "0")

	if err := uc.DeactivateRawMaterial(ctx, storeID, m.ID); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}

	_, err := uc.RecordPurchase(ctx, &dto.PurchaseInput{
		StoreID:       storeID,
		RawMaterialID: m.ID,
		Quantity:      dec("1"),
		UnitPrice:     dec("1"),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestRecordPurchaseRejectsBadQuantity(t *testing.T) {
	uc, _ := setup(t, nil)
	m := createMaterial(t, uc, "Milk", "l", "0")

	_, err := uc.RecordPurchase(context.Background(), &dto.PurchaseInput{
		StoreID:       storeID,
		RawMaterialID: m.ID,
		Quantity:      dec("-1"),
		UnitPrice:     dec("1"),
	})
	if !errors.Is(err, apperr.ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestGetRawMaterialIsStoreScoped(t *testing.T) {
	uc, _ := setup(t, nil)
	m := createMaterial(t, uc, "Milk", "l", "1")

	_, err := uc.GetRawMaterial(context.Background(), "store-2", m.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another store, got %v", err)
	}
}

func TestAvailableTreatsMissingAsZero(t *testing.T) {
	uc, _ := setup(t, nil)
	m := createMaterial(t, uc, "Milk", "l", "4")

	available, err := uc.Available(context.Background(), storeID, []string{m.ID, "ghost"}, false)
	if err != nil {
		t.Fatalf("Failed to read availability: %v", err)
	}
	if !available[m.ID].Equal(dec("4")) {
		t.Errorf("Expected 4 milk, got %s", available[m.ID])
	}
	if q, ok := available["ghost"]; !ok || !q.IsZero() {
		t.Errorf("Expected ghost material at 0, got %s (present=%v)", q, ok)
	}
}

func TestProductStockLifecycle(t *testing.T) {
	uc, mem := setup(t, nil)
	ctx := context.Background()
	template := &model.RecipeTemplate{
		BaseModel: model.BaseModel{ID: "tpl-1"},
		StoreID:   storeID,
		Name:      "Bottled Water",
		Unit:      "bottle",
	}

	if p, _ := uc.ProductStockForTemplate(ctx, storeID, template.ID); p != nil {
		t.Fatalf("Expected no product stock before the first ensure, got %s", p.ID)
	}

	var first, second *model.ProductStock
	err := mem.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if first, err = uc.EnsureProductStock(ctx, template); err != nil {
			return err
		}
		second, err = uc.EnsureProductStock(ctx, template)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to ensure product stock: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected one product stock per template, got %s and %s", first.ID, second.ID)
	}

	p, err := uc.RestockProduct(ctx, &dto.RestockProductInput{
		StoreID:        storeID,
		ProductStockID: first.ID,
		Quantity:       dec("24"),
	})
	if err != nil {
		t.Fatalf("Failed to restock: %v", err)
	}
	if !p.Quantity.Equal(dec("24")) {
		t.Errorf("Expected 24 bottles, got %s", p.Quantity)
	}

	if err := uc.RecordLastBatch(ctx, first.ID, "batch-1"); err != nil {
		t.Fatalf("Failed to record last batch: %v", err)
	}
	p, _ = uc.ProductStockForTemplate(ctx, storeID, template.ID)
	if p.LastBatchID == nil || *p.LastBatchID != "batch-1" {
		t.Errorf("Expected last batch batch-1, got %v", p.LastBatchID)
	}
}

func TestListStockUsesCacheUntilWrite(t *testing.T) {
	cache := newFakeCache()
	uc, _ := setup(t, cache)
	ctx := context.Background()
	m := createMaterial(t, uc, "Milk", "l", "2")

	first, err := uc.ListStock(ctx, storeID)
	if err != nil {
		t.Fatalf("Failed to list stock: %v", err)
	}
	if len(first.RawMaterials) != 1 || !first.RawMaterials[0].Quantity.Equal(dec("2")) {
		t.Fatalf("Expected one row with 2 on hand, got %+v", first.RawMaterials)
	}

	if _, err := uc.ListStock(ctx, storeID); err != nil {
		t.Fatalf("Failed to list stock: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("Expected the second read to hit the cache, got %d hits", cache.hits)
	}

	if _, err := uc.Adjust(ctx, &dto.AdjustInput{
		StoreID: storeID,
		Kind:    model.StockKindRawMaterial,
		StockID: m.ID,
		Delta:   dec("1"),
	}); err != nil {
		t.Fatalf("Failed to adjust: %v", err)
	}

	after, err := uc.ListStock(ctx, storeID)
	if err != nil {
		t.Fatalf("Failed to list stock: %v", err)
	}
	if !after.RawMaterials[0].Quantity.Equal(dec("3")) {
		t.Errorf("Expected a fresh snapshot with 3 on hand, got %s", after.RawMaterials[0].Quantity)
	}
	if cache.hits != 1 {
		t.Errorf("Expected no cache hit after invalidation, got %d hits", cache.hits)
	}
}

func TestFailedAdjustKeepsCache(t *testing.T) {
	cache := newFakeCache()
	uc, _ := setup(t, cache)
	ctx := context.Background()
	m := createMaterial(t, uc, "Milk", "l", "1")

	if _, err := uc.ListStock(ctx, storeID); err != nil {
		t.Fatalf("Failed to list stock: %v", err)
	}
	deletes := len(cache.deletes)

	_, err := uc.Adjust(ctx, &dto.AdjustInput{
		StoreID: storeID,
		Kind:    model.StockKindRawMaterial,
		StockID: m.ID,
		Delta:   dec("-2"),
	})
	if err == nil {
		t.Fatal("Expected adjust to fail")
	}
	if len(cache.deletes) != deletes {
		t.Errorf("Expected no invalidation after a rolled back write, got %d", len(cache.deletes)-deletes)
	}
}
