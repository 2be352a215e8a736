package audit

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

// Repository is append-only apart from MarkReversed.
type Repository interface {
	CreateProductionEvent(ctx context.Context, e *model.ProductionEvent) error
	GetProductionEvent(ctx context.Context, id string) (*model.ProductionEvent, error)
	// MarkReversed fails with apperr.ErrAlreadyReversed when the event already has a reversal.
	MarkReversed(ctx context.Context, eventID, reversalID string) error
	ListProductionEvents(ctx context.Context, filters *dto.LedgerFilters) ([]model.ProductionEvent, int, error)

	CreatePurchase(ctx context.Context, p *model.PurchaseLog) error
	ListPurchases(ctx context.Context, filters *dto.LedgerFilters) ([]model.PurchaseLog, int, error)
}
