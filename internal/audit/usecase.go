package audit

import (
	"context"
	"io"

	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type UseCase interface {
	// RecordProduction and RecordPurchase append inside the caller's unit of work.
	RecordProduction(ctx context.Context, e *model.ProductionEvent) error
	RecordPurchase(ctx context.Context, p *model.PurchaseLog) error
	MarkReversed(ctx context.Context, eventID, reversalID string) error

	GetProductionEvent(ctx context.Context, storeID, id string) (*model.ProductionEvent, error)
	ListProductionEvents(ctx context.Context, filters *dto.LedgerFilters) ([]model.ProductionEvent, int, error)
	ListPurchases(ctx context.Context, filters *dto.LedgerFilters) ([]model.PurchaseLog, int, error)

	// IndexProduction and IndexPurchase push committed rows to the search index, best-effort.
	IndexProduction(ctx context.Context, e *model.ProductionEvent)
	IndexPurchase(ctx context.Context, p *model.PurchaseLog)

	Export(ctx context.Context, w io.Writer, filters *dto.LedgerFilters) error
}
