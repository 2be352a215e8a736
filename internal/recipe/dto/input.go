package dto

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

type ResolveTemplateInput struct {
	StoreID   string           `json:"store_id" validate:"required"`
	Name      string           `json:"name" validate:"required,max=120"`
	Unit      string           `json:"unit" validate:"required,max=32"`
	Kind      model.RecipeKind `json:"-"`
	BatchName string           `json:"batch_name" validate:"max=120"` // name of the default batch when one is created
	UserID    string           `json:"-"`
}

type ResolveTemplateResult struct {
	Template *model.RecipeTemplate `json:"template"`
	Batch    *model.RecipeBatch    `json:"batch,omitempty"` // matching or newly created batch, nil for simple goods
	Created  bool                  `json:"created"`
}

type AddBatchInput struct {
	StoreID     string                 `json:"store_id" validate:"required"`
	TemplateID  string                 `json:"template_id" validate:"required"`
	BatchName   string                 `json:"batch_name" validate:"required,max=120"`
	Yield       decimal.Decimal        `json:"yield" validate:"gt=0"`
	Ingredients []model.IngredientSpec `json:"ingredients" validate:"min=1,dive"`
	IsDefault   bool                   `json:"is_default"`
}

type UpdateBatchInput struct {
	StoreID     string                 `json:"store_id" validate:"required"`
	BatchID     string                 `json:"batch_id" validate:"required"`
	BatchName   string                 `json:"batch_name" validate:"required,max=120"`
	Yield       decimal.Decimal        `json:"yield" validate:"gt=0"`
	Ingredients []model.IngredientSpec `json:"ingredients" validate:"min=1,dive"`
}
