package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RawMaterial struct {
	BaseModel
	StoreID  string `db:"store_id" json:"store_id"`
	Name     string `db:"name" json:"name"`
	Unit     string `db:"unit" json:"unit"`
	IsActive bool   `db:"is_active" json:"is_active"` // soft delete, rows stay for history
}

// RawMaterialStock is the on-hand quantity of one raw material in one store.
// Quantity is never negative once a transaction commits.
type RawMaterialStock struct {
	ID                string              `db:"id" json:"id"`
	StoreID           string              `db:"store_id" json:"store_id"`
	RawMaterialID     string              `db:"raw_material_id" json:"raw_material_id"`
	Quantity          decimal.Decimal     `db:"quantity" json:"quantity"`
	Unit              string              `db:"unit" json:"unit"`
	LastPurchasePrice decimal.NullDecimal `db:"last_purchase_price" json:"last_purchase_price"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
}

type PurchaseLog struct {
	ID            string          `db:"id" json:"id"`
	StoreID       string          `db:"store_id" json:"store_id"`
	RawMaterialID string          `db:"raw_material_id" json:"raw_material_id"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Unit          string          `db:"unit" json:"unit"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalCost     decimal.Decimal `db:"total_cost" json:"total_cost"`
	Supplier      *string         `db:"supplier" json:"supplier"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id"` // upstream purchase/event id
	ActorID       *string         `db:"actor_id" json:"actor_id"`
	Note          string          `db:"note" json:"note"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
