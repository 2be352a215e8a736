package stock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	CreateRawMaterial(ctx context.Context, input *dto.CreateRawMaterialInput) (*model.RawMaterial, error)
	GetRawMaterial(ctx context.Context, storeID, id string) (*model.RawMaterial, error)
	ListRawMaterials(ctx context.Context, filters *dto.RawMaterialFilters) ([]model.RawMaterial, error)
	DeactivateRawMaterial(ctx context.Context, storeID, id string) error

	GetQuantity(ctx context.Context, storeID string, ref model.StockRef) (decimal.Decimal, error)
	// Available maps each raw material to its on-hand quantity; missing rows count as zero.
	// With lock set the rows stay locked until the surrounding unit of work ends.
	Available(ctx context.Context, storeID string, rawMaterialIDs []string, lock bool) (map[string]decimal.Decimal, error)
	Adjust(ctx context.Context, input *dto.AdjustInput) (*model.StockMovement, error)
	RecordPurchase(ctx context.Context, input *dto.PurchaseInput) (*model.PurchaseLog, error)
	RestockProduct(ctx context.Context, input *dto.RestockProductInput) (*model.ProductStock, error)

	GetProductStock(ctx context.Context, storeID, id string) (*model.ProductStock, error)
	// ProductStockForTemplate returns nil when nothing was produced from the template yet.
	ProductStockForTemplate(ctx context.Context, storeID, templateID string) (*model.ProductStock, error)
	EnsureProductStock(ctx context.Context, template *model.RecipeTemplate) (*model.ProductStock, error)
	RecordLastBatch(ctx context.Context, productStockID, batchID string) error

	ListStock(ctx context.Context, storeID string) (*model.StockSnapshot, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	InvalidateStore(ctx context.Context, storeID string)
}

// PurchaseRecorder appends purchase-log entries to the audit ledger.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, entry *model.PurchaseLog) error
	IndexPurchase(ctx context.Context, entry *model.PurchaseLog)
}

// SnapshotCache is the read cache behind ListStock.
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}
