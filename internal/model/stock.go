package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockKind string

const (
	StockKindRawMaterial StockKind = "raw_material"
	StockKindProduct     StockKind = "product"
)

// StockRef points at one stock row: a raw material id or a product stock id.
type StockRef struct {
	Kind StockKind `json:"kind"`
	ID   string    `json:"id"`
}

type ProductStock struct {
	BaseModel
	StoreID          string          `db:"store_id" json:"store_id"`
	Name             string          `db:"name" json:"name"`
	Unit             string          `db:"unit" json:"unit"`
	Quantity         decimal.Decimal `db:"quantity" json:"quantity"`
	RecipeTemplateID *string         `db:"recipe_template_id" json:"recipe_template_id"`
	LastBatchID      *string         `db:"last_batch_id" json:"last_batch_id"`
}

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementRestock    MovementType = "restock"
	MovementProduction MovementType = "production"
	MovementReversal   MovementType = "reversal"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is the ledger entry appended by every successful adjustment.
type StockMovement struct {
	ID             string          `db:"id" json:"id"`
	StoreID        string          `db:"store_id" json:"store_id"`
	StockKind      StockKind       `db:"stock_kind" json:"stock_kind"`
	StockID        string          `db:"stock_id" json:"stock_id"`
	MovementType   MovementType    `db:"movement_type" json:"movement_type"`
	QuantityChange decimal.Decimal `db:"quantity_change" json:"quantity_change"`
	QuantityBefore decimal.Decimal `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  decimal.Decimal `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string         `db:"reference_type" json:"reference_type"`
	ReferenceID    *string         `db:"reference_id" json:"reference_id"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      *string         `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// StockSnapshot is the cached per-store view served to UI reads.
type StockSnapshot struct {
	StoreID      string             `json:"store_id"`
	RawMaterials []RawMaterialStock `json:"raw_materials"`
	Products     []ProductStock     `json:"products"`
}
