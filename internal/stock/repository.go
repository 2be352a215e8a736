package stock

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/shopspring/decimal"
)

// Repository reads return (nil, nil) when a row does not exist.
// ApplyXDelta fails with apperr.ErrInsufficientStock when the row would go negative
// and apperr.ErrNotFound when the row is missing.
type Repository interface {
	// Raw materials
	CreateRawMaterial(ctx context.Context, m *model.RawMaterial) error
	GetRawMaterial(ctx context.Context, id string) (*model.RawMaterial, error)
	ListRawMaterials(ctx context.Context, filters *dto.RawMaterialFilters) ([]model.RawMaterial, error)
	SetRawMaterialActive(ctx context.Context, id string, active bool) error

	// Raw material stock
	CreateRawMaterialStock(ctx context.Context, s *model.RawMaterialStock) error
	GetRawMaterialStock(ctx context.Context, storeID, rawMaterialID string) (*model.RawMaterialStock, error)
	GetRawMaterialStocks(ctx context.Context, storeID string, rawMaterialIDs []string, forUpdate bool) ([]model.RawMaterialStock, error)
	ListRawMaterialStock(ctx context.Context, storeID string) ([]model.RawMaterialStock, error)
	ApplyRawMaterialDelta(ctx context.Context, storeID, rawMaterialID string, delta decimal.Decimal) (decimal.Decimal, error)
	SetLastPurchasePrice(ctx context.Context, storeID, rawMaterialID string, price decimal.Decimal) error

	// Finished products
	CreateProductStock(ctx context.Context, p *model.ProductStock) error
	GetProductStock(ctx context.Context, id string) (*model.ProductStock, error)
	FindProductStockByTemplate(ctx context.Context, storeID, templateID string) (*model.ProductStock, error)
	ListProductStock(ctx context.Context, storeID string) ([]model.ProductStock, error)
	ApplyProductDelta(ctx context.Context, storeID, productStockID string, delta decimal.Decimal) (decimal.Decimal, error)
	SetProductLastBatch(ctx context.Context, productStockID, batchID string) error

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
