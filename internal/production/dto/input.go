package dto

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

type ProduceInput struct {
	StoreID    string          `json:"store_id" validate:"required"`
	TemplateID string          `json:"template_id" validate:"required"`
	BatchID    *string         `json:"batch_id"` // nil: last used batch, then the catalog's selection rules
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	Note       string          `json:"note" validate:"max=500"`
	UserID     string          `json:"-"`
}

type ShortageInput struct {
	StoreID    string          `json:"store_id" validate:"required"`
	TemplateID string          `json:"template_id" validate:"required"`
	BatchID    *string         `json:"batch_id"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type ReverseInput struct {
	StoreID string `json:"store_id" validate:"required"`
	EventID string `json:"event_id" validate:"required"`
	Reason  string `json:"reason" validate:"max=500"`
	UserID  string `json:"-"`
}

// RegisterProductInput registers a simple good that is restocked rather than produced.
type RegisterProductInput struct {
	StoreID         string          `json:"store_id" validate:"required"`
	Name            string          `json:"name" validate:"required,max=120"`
	Unit            string          `json:"unit" validate:"required,max=32"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity" validate:"gte=0"`
	UserID          string          `json:"-"`
}

type RegisterProductResult struct {
	Template     *model.RecipeTemplate `json:"template"`
	ProductStock *model.ProductStock   `json:"product_stock"`
	Created      bool                  `json:"created"`
}
