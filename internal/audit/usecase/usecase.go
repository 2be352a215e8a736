package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	productionIndex = "production_events"
	purchaseIndex   = "purchase_logs"
)

// Indexer pushes documents to the reporting search index.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type auditUseCase struct {
	repo   audit.Repository
	es     Indexer
	logger logger.ZapLogger
}

// NewAuditUseCase builds the audit ledger. es may be nil.
func NewAuditUseCase(repo audit.Repository, es Indexer, log logger.ZapLogger) audit.UseCase {
	return &auditUseCase{
		repo:   repo,
		es:     es,
		logger: log,
	}
}

func (uc *auditUseCase) RecordProduction(ctx context.Context, e *model.ProductionEvent) error {
	return uc.repo.CreateProductionEvent(ctx, e)
}

func (uc *auditUseCase) RecordPurchase(ctx context.Context, p *model.PurchaseLog) error {
	return uc.repo.CreatePurchase(ctx, p)
}

func (uc *auditUseCase) MarkReversed(ctx context.Context, eventID, reversalID string) error {
	return uc.repo.MarkReversed(ctx, eventID, reversalID)
}

func (uc *auditUseCase) GetProductionEvent(ctx context.Context, storeID, id string) (*model.ProductionEvent, error) {
	e, err := uc.repo.GetProductionEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.StoreID != storeID {
		return nil, apperr.NotFound("production event", id)
	}
	return e, nil
}

func (uc *auditUseCase) ListProductionEvents(ctx context.Context, filters *dto.LedgerFilters) ([]model.ProductionEvent, int, error) {
	if err := checkRange(filters); err != nil {
		return nil, 0, err
	}
	return uc.repo.ListProductionEvents(ctx, filters)
}

func (uc *auditUseCase) ListPurchases(ctx context.Context, filters *dto.LedgerFilters) ([]model.PurchaseLog, int, error) {
	if err := checkRange(filters); err != nil {
		return nil, 0, err
	}
	return uc.repo.ListPurchases(ctx, filters)
}

func (uc *auditUseCase) IndexProduction(ctx context.Context, e *model.ProductionEvent) {
	if uc.es == nil {
		return
	}
	if err := uc.es.IndexDocument(ctx, productionIndex, e.ID, e); err != nil {
		uc.logger.Error("Failed to index production event", zap.String("event_id", e.ID), zap.Error(err))
	}
}

func (uc *auditUseCase) IndexPurchase(ctx context.Context, p *model.PurchaseLog) {
	if uc.es == nil {
		return
	}
	if err := uc.es.IndexDocument(ctx, purchaseIndex, p.ID, p); err != nil {
		uc.logger.Error("Failed to index purchase log", zap.String("purchase_id", p.ID), zap.Error(err))
	}
}

func checkRange(f *dto.LedgerFilters) error {
	if f.StartDate != nil && f.EndDate != nil && !f.EndDate.After(*f.StartDate) {
		return apperr.NewValidation("end_date", "gtfield", "must be after start_date", nil)
	}
	return nil
}

// ProductionIndexMapping is the Elasticsearch mapping for production events.
const ProductionIndexMapping = `{
	"mappings": {
		"properties": {
			"store_id":    { "type": "keyword" },
			"kind":        { "type": "keyword" },
			"template_id": { "type": "keyword" },
			"batch_id":    { "type": "keyword" },
			"quantity":    { "type": "scaled_float", "scaling_factor": 10000 },
			"created_at":  { "type": "date" },
			"lines": {
				"type": "nested",
				"properties": {
					"raw_material_id": { "type": "keyword" },
					"quantity":        { "type": "scaled_float", "scaling_factor": 10000 }
				}
			}
		}
	}
}`

// PurchaseIndexMapping is the Elasticsearch mapping for purchase logs.
const PurchaseIndexMapping = `{
	"mappings": {
		"properties": {
			"store_id":        { "type": "keyword" },
			"raw_material_id": { "type": "keyword" },
			"quantity":        { "type": "scaled_float", "scaling_factor": 10000 },
			"total_cost":      { "type": "scaled_float", "scaling_factor": 100 },
			"created_at":      { "type": "date" }
		}
	}
}`

// Indexes lists every index the audit ledger writes, with its mapping.
func Indexes() map[string]string {
	return map[string]string{
		productionIndex: ProductionIndexMapping,
		purchaseIndex:   PurchaseIndexMapping,
	}
}

func dateOf(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
