package dto

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateRawMaterialInput struct {
	StoreID         string          `json:"store_id" validate:"required"`
	Name            string          `json:"name" validate:"required,max=120"`
	Unit            string          `json:"unit" validate:"required,max=32"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity" validate:"gte=0"`
	UserID          string          `json:"-"`
}

// AdjustInput is a signed change to one stock row.
type AdjustInput struct {
	StoreID       string             `json:"store_id" validate:"required"`
	Kind          model.StockKind    `json:"kind" validate:"required,oneof=raw_material product"`
	StockID       string             `json:"stock_id" validate:"required"`
	Delta         decimal.Decimal    `json:"delta"`
	MovementType  model.MovementType `json:"movement_type"`
	ReferenceType string             `json:"reference_type"`
	ReferenceID   string             `json:"reference_id"`
	Notes         string             `json:"notes"`
	UserID        string             `json:"-"`
}

type PurchaseInput struct {
	StoreID       string          `json:"store_id" validate:"required"`
	RawMaterialID string          `json:"raw_material_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Supplier      string          `json:"supplier" validate:"max=120"`
	ReferenceID   string          `json:"reference_id"`
	Note          string          `json:"note"`
	UserID        string          `json:"-"`
}

type RestockProductInput struct {
	StoreID        string          `json:"store_id" validate:"required"`
	ProductStockID string          `json:"product_stock_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"gt=0"`
	Note           string          `json:"note"`
	UserID         string          `json:"-"`
}
