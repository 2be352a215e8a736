package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/metrics"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
	"github.com/fekuna/omnipos-production-service/internal/validation"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo      stock.Repository
	tx        store.Transactor
	purchases stock.PurchaseRecorder
	cache     stock.SnapshotCache
	cacheTTL  time.Duration
	logger    logger.ZapLogger
}

// NewStockUseCase builds the stock ledger. cache may be nil.
func NewStockUseCase(repo stock.Repository, tx store.Transactor, purchases stock.PurchaseRecorder, cache stock.SnapshotCache, cacheTTL time.Duration, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:      repo,
		tx:        tx,
		purchases: purchases,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    log,
	}
}

func (uc *stockUseCase) CreateRawMaterial(ctx context.Context, input *dto.CreateRawMaterialInput) (*model.RawMaterial, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	now := time.Now()
	m := &model.RawMaterial{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		StoreID:   input.StoreID,
		Name:      input.Name,
		Unit:      input.Unit,
		IsActive:  true,
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.CreateRawMaterial(ctx, m); err != nil {
			return err
		}
		if err := uc.repo.CreateRawMaterialStock(ctx, &model.RawMaterialStock{
			ID:            uuid.New().String(),
			StoreID:       m.StoreID,
			RawMaterialID: m.ID,
			Quantity:      decimal.Zero,
			Unit:          m.Unit,
			UpdatedAt:     now,
		}); err != nil {
			return err
		}
		if input.OpeningQuantity.IsPositive() {
			_, err := uc.apply(ctx, &dto.AdjustInput{
				StoreID:       m.StoreID,
				Kind:          model.StockKindRawMaterial,
				StockID:       m.ID,
				Delta:         input.OpeningQuantity,
				MovementType:  model.MovementAdjustment,
				ReferenceType: "opening_balance",
				Notes:         "Opening balance",
				UserID:        input.UserID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.InvalidateStore(ctx, m.StoreID)
	return m, nil
}

func (uc *stockUseCase) GetRawMaterial(ctx context.Context, storeID, id string) (*model.RawMaterial, error) {
	m, err := uc.repo.GetRawMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.StoreID != storeID {
		return nil, apperr.NotFound("raw material", id)
	}
	return m, nil
}

func (uc *stockUseCase) ListRawMaterials(ctx context.Context, filters *dto.RawMaterialFilters) ([]model.RawMaterial, error) {
	return uc.repo.ListRawMaterials(ctx, filters)
}

func (uc *stockUseCase) DeactivateRawMaterial(ctx context.Context, storeID, id string) error {
	if _, err := uc.GetRawMaterial(ctx, storeID, id); err != nil {
		return err
	}
	if err := uc.repo.SetRawMaterialActive(ctx, id, false); err != nil {
		return err
	}
	uc.InvalidateStore(ctx, storeID)
	return nil
}

func (uc *stockUseCase) GetQuantity(ctx context.Context, storeID string, ref model.StockRef) (decimal.Decimal, error) {
	switch ref.Kind {
	case model.StockKindRawMaterial:
		s, err := uc.repo.GetRawMaterialStock(ctx, storeID, ref.ID)
		if err != nil {
			return decimal.Zero, err
		}
		if s == nil {
			return decimal.Zero, apperr.NotFound("raw material stock", ref.ID)
		}
		return s.Quantity, nil
	case model.StockKindProduct:
		p, err := uc.GetProductStock(ctx, storeID, ref.ID)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Quantity, nil
	default:
		return decimal.Zero, apperr.NewValidation("kind", "oneof", "must be raw_material or product", nil)
	}
}

func (uc *stockUseCase) Available(ctx context.Context, storeID string, rawMaterialIDs []string, lock bool) (map[string]decimal.Decimal, error) {
	ids := append([]string(nil), rawMaterialIDs...)
	sort.Strings(ids)

	rows, err := uc.repo.GetRawMaterialStocks(ctx, storeID, ids, lock)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		out[id] = decimal.Zero
	}
	for _, row := range rows {
		out[row.RawMaterialID] = row.Quantity
	}
	return out, nil
}

func (uc *stockUseCase) Adjust(ctx context.Context, input *dto.AdjustInput) (*model.StockMovement, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var movement *model.StockMovement
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		movement, err = uc.apply(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.InvalidateStore(ctx, input.StoreID)
	return movement, nil
}

// apply changes one row and appends its ledger entry. It must run inside a unit of work.
func (uc *stockUseCase) apply(ctx context.Context, input *dto.AdjustInput) (*model.StockMovement, error) {
	if input.Delta.IsZero() {
		return nil, apperr.NewValidation("delta", "nonzero", "must not be zero", apperr.ErrInvalidQuantity)
	}

	var (
		after decimal.Decimal
		err   error
	)
	switch input.Kind {
	case model.StockKindRawMaterial:
		after, err = uc.repo.ApplyRawMaterialDelta(ctx, input.StoreID, input.StockID, input.Delta)
	case model.StockKindProduct:
		after, err = uc.repo.ApplyProductDelta(ctx, input.StoreID, input.StockID, input.Delta)
	default:
		return nil, apperr.NewValidation("kind", "oneof", "must be raw_material or product", nil)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientStock) {
			return nil, uc.insufficient(ctx, input)
		}
		return nil, err
	}

	movementType := input.MovementType
	if movementType == "" {
		movementType = model.MovementAdjustment
	}

	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		StoreID:        input.StoreID,
		StockKind:      input.Kind,
		StockID:        input.StockID,
		MovementType:   movementType,
		QuantityChange: input.Delta,
		QuantityBefore: after.Sub(input.Delta),
		QuantityAfter:  after,
		ReferenceType:  optional(input.ReferenceType),
		ReferenceID:    optional(input.ReferenceID),
		Notes:          input.Notes,
		CreatedBy:      optional(input.UserID),
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.LogMovement(ctx, movement); err != nil {
		return nil, err
	}

	metrics.StockAdjustments.WithLabelValues(string(input.Kind), string(movementType)).Inc()
	return movement, nil
}

func (uc *stockUseCase) insufficient(ctx context.Context, input *dto.AdjustInput) error {
	available, err := uc.GetQuantity(ctx, input.StoreID, model.StockRef{Kind: input.Kind, ID: input.StockID})
	if err != nil {
		return err
	}
	required := input.Delta.Neg()
	return &apperr.InsufficientStockError{Report: &model.ShortageReport{
		Quantity: required,
		Lines: []model.ShortageLine{{
			RawMaterialID: input.StockID,
			Status:        model.StatusShortage,
			Required:      required,
			Available:     available,
			Deficit:       required.Sub(available),
		}},
	}}
}

func (uc *stockUseCase) RecordPurchase(ctx context.Context, input *dto.PurchaseInput) (*model.PurchaseLog, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	material, err := uc.GetRawMaterial(ctx, input.StoreID, input.RawMaterialID)
	if err != nil {
		return nil, err
	}
	if !material.IsActive {
		return nil, apperr.NewValidation("raw_material_id", "active", "raw material is deactivated", nil)
	}

	entry := &model.PurchaseLog{
		ID:            uuid.New().String(),
		StoreID:       input.StoreID,
		RawMaterialID: input.RawMaterialID,
		Quantity:      input.Quantity,
		Unit:          material.Unit,
		UnitPrice:     input.UnitPrice,
		TotalCost:     input.Quantity.Mul(input.UnitPrice),
		Supplier:      optional(input.Supplier),
		ReferenceID:   optional(input.ReferenceID),
		ActorID:       optional(input.UserID),
		Note:          input.Note,
		CreatedAt:     time.Now(),
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.apply(ctx, &dto.AdjustInput{
			StoreID:       input.StoreID,
			Kind:          model.StockKindRawMaterial,
			StockID:       input.RawMaterialID,
			Delta:         input.Quantity,
			MovementType:  model.MovementPurchase,
			ReferenceType: "purchase",
			ReferenceID:   entry.ID,
			Notes:         input.Note,
			UserID:        input.UserID,
		}); err != nil {
			return err
		}
		if err := uc.repo.SetLastPurchasePrice(ctx, input.StoreID, input.RawMaterialID, input.UnitPrice); err != nil {
			return err
		}
		return uc.purchases.RecordPurchase(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Recorded raw material purchase",
		zap.String("store_id", input.StoreID),
		zap.String("raw_material_id", input.RawMaterialID),
		zap.String("quantity", input.Quantity.String()),
	)
	uc.InvalidateStore(ctx, input.StoreID)
	go uc.purchases.IndexPurchase(context.Background(), entry)
	return entry, nil
}

func (uc *stockUseCase) RestockProduct(ctx context.Context, input *dto.RestockProductInput) (*model.ProductStock, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var p *model.ProductStock
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := uc.apply(ctx, &dto.AdjustInput{
			StoreID:       input.StoreID,
			Kind:          model.StockKindProduct,
			StockID:       input.ProductStockID,
			Delta:         input.Quantity,
			MovementType:  model.MovementRestock,
			ReferenceType: "restock",
			Notes:         input.Note,
			UserID:        input.UserID,
		})
		if err != nil {
			return err
		}
		p, err = uc.GetProductStock(ctx, input.StoreID, input.ProductStockID)
		if err != nil {
			return err
		}
		p.Quantity = m.QuantityAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.InvalidateStore(ctx, input.StoreID)
	return p, nil
}

func (uc *stockUseCase) GetProductStock(ctx context.Context, storeID, id string) (*model.ProductStock, error) {
	p, err := uc.repo.GetProductStock(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.StoreID != storeID {
		return nil, apperr.NotFound("product stock", id)
	}
	return p, nil
}

func (uc *stockUseCase) ProductStockForTemplate(ctx context.Context, storeID, templateID string) (*model.ProductStock, error) {
	return uc.repo.FindProductStockByTemplate(ctx, storeID, templateID)
}

// EnsureProductStock returns the stock row produced from template, creating an empty one
// the first time. It must run inside a unit of work.
func (uc *stockUseCase) EnsureProductStock(ctx context.Context, template *model.RecipeTemplate) (*model.ProductStock, error) {
	p, err := uc.repo.FindProductStockByTemplate(ctx, template.StoreID, template.ID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	now := time.Now()
	templateID := template.ID
	err = uc.repo.CreateProductStock(ctx, &model.ProductStock{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		StoreID:          template.StoreID,
		Name:             template.Name,
		Unit:             template.Unit,
		Quantity:         decimal.Zero,
		RecipeTemplateID: &templateID,
	})
	if err != nil {
		return nil, err
	}

	p, err = uc.repo.FindProductStockByTemplate(ctx, template.StoreID, template.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product stock for template %s vanished after create", template.ID)
	}
	return p, nil
}

func (uc *stockUseCase) RecordLastBatch(ctx context.Context, productStockID, batchID string) error {
	return uc.repo.SetProductLastBatch(ctx, productStockID, batchID)
}

func (uc *stockUseCase) ListStock(ctx context.Context, storeID string) (*model.StockSnapshot, error) {
	key := snapshotKey(storeID)
	if uc.cache != nil {
		var cached model.StockSnapshot
		hit, err := uc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("Failed to read stock snapshot from cache", zap.String("store_id", storeID), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	raw, err := uc.repo.ListRawMaterialStock(ctx, storeID)
	if err != nil {
		return nil, err
	}
	products, err := uc.repo.ListProductStock(ctx, storeID)
	if err != nil {
		return nil, err
	}
	snapshot := &model.StockSnapshot{StoreID: storeID, RawMaterials: raw, Products: products}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, snapshot, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to cache stock snapshot", zap.String("store_id", storeID), zap.Error(err))
		}
	}
	return snapshot, nil
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

// InvalidateStore drops every cached read for storeID. Called after each committed write.
func (uc *stockUseCase) InvalidateStore(ctx context.Context, storeID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, fmt.Sprintf("stock:%s:*", storeID)); err != nil {
		uc.logger.Error("Failed to invalidate stock cache", zap.String("store_id", storeID), zap.Error(err))
	}
}

func snapshotKey(storeID string) string {
	return fmt.Sprintf("stock:%s:snapshot", storeID)
}

func optional(s string) *string {
	if s == "" || s == "unknown" {
		return nil
	}
	return &s
}
