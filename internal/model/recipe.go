package model

import (
	"github.com/shopspring/decimal"
)

// StandardBatchName is preferred by batch selection when no batch is given.
const StandardBatchName = "standard recipe"

type RecipeTemplate struct {
	BaseModel
	StoreID        string        `db:"store_id" json:"store_id"`
	Name           string        `db:"name" json:"name"`
	Unit           string        `db:"unit" json:"unit"`
	HasIngredients bool          `db:"has_ingredients" json:"has_ingredients"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	Batches        []RecipeBatch `db:"-" json:"batches,omitempty"`
}

type RecipeBatch struct {
	BaseModel
	TemplateID         string             `db:"template_id" json:"template_id"`
	BatchName          string             `db:"batch_name" json:"batch_name"`
	ProducibleQuantity decimal.Decimal    `db:"producible_quantity" json:"producible_quantity"` // yield
	IsDefault          bool               `db:"is_default" json:"is_default"`
	IsActive           bool               `db:"is_active" json:"is_active"`
	Ingredients        []RecipeIngredient `db:"-" json:"ingredients"`
}

type RecipeIngredient struct {
	ID             string          `db:"id" json:"id"`
	BatchID        string          `db:"batch_id" json:"batch_id"`
	RawMaterialID  string          `db:"raw_material_id" json:"raw_material_id"`
	QuantityNeeded decimal.Decimal `db:"quantity_needed" json:"quantity_needed"` // per one full batch yield
	Unit           string          `db:"unit" json:"unit"`
	Position       int             `db:"position" json:"position"`
}

// IngredientSpec is an ingredient as supplied by a caller, before it is stored.
type IngredientSpec struct {
	RawMaterialID string          `json:"raw_material_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit          string          `json:"unit" validate:"max=32"`
}

// RecipeKind is either SimpleKind or ManufacturedKind.
type RecipeKind interface {
	HasIngredients() bool
	recipeKind()
}

// SimpleKind is a stocked good with no recipe.
type SimpleKind struct{}

func (SimpleKind) HasIngredients() bool { return false }
func (SimpleKind) recipeKind()          {}

// ManufacturedKind is produced from Ingredients, making Yield units per batch.
type ManufacturedKind struct {
	Ingredients []IngredientSpec
	Yield       decimal.Decimal
}

func (ManufacturedKind) HasIngredients() bool { return true }
func (ManufacturedKind) recipeKind()          {}
