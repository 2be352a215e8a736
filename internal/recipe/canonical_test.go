package recipe

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCanonicalizeOrderIndependent(t *testing.T) {
	a, err := Canonicalize([]model.IngredientSpec{
		{RawMaterialID: "tea", Quantity: dec("100"), Unit: "g"},
		{RawMaterialID: "milk", Quantity: dec("2"), Unit: "L"},
	})
	if err != nil {
		t.Fatalf("Failed to canonicalize: %v", err)
	}
	b, err := Canonicalize([]model.IngredientSpec{
		{RawMaterialID: " milk ", Quantity: dec("2.000"), Unit: " l"},
		{RawMaterialID: "tea", Quantity: dec("100"), Unit: "G"},
	})
	if err != nil {
		t.Fatalf("Failed to canonicalize: %v", err)
	}

	if !a.Equal(b) {
		t.Errorf("Expected equal sets, got %+v and %+v", a, b)
	}
	if a[0].RawMaterialID != "milk" {
		t.Errorf("Expected milk first after sorting, got %s", a[0].RawMaterialID)
	}
}

func TestCanonicalizeRejects(t *testing.T) {
	tests := []struct {
		name  string
		specs []model.IngredientSpec
		want  error
	}{
		{
			name: "empty",
			want: apperr.ErrEmptyIngredients,
		},
		{
			name: "duplicate material",
			specs: []model.IngredientSpec{
				{RawMaterialID: "milk", Quantity: dec("1")},
				{RawMaterialID: "milk", Quantity: dec("2")},
			},
			want: apperr.ErrDuplicateIngredient,
		},
		{
			name: "zero quantity",
			specs: []model.IngredientSpec{
				{RawMaterialID: "milk", Quantity: decimal.Zero},
			},
			want: apperr.ErrInvalidQuantity,
		},
		{
			name: "missing material",
			specs: []model.IngredientSpec{
				{RawMaterialID: " ", Quantity: dec("1")},
			},
			want: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.specs)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRecipeYield(t *testing.T) {
	specs := []model.IngredientSpec{{RawMaterialID: "milk", Quantity: dec("1")}}

	for _, yield := range []string{"0", "-5"} {
		if err := ValidateRecipe(dec(yield), specs); !errors.Is(err, apperr.ErrInvalidYield) {
			t.Errorf("Expected ErrInvalidYield for yield %s, got %v", yield, err)
		}
	}
	if err := ValidateRecipe(dec("0.5"), specs); err != nil {
		t.Errorf("Expected a fractional yield to pass, got %v", err)
	}
}

func TestCompareIsTotal(t *testing.T) {
	base := IngredientSet{{RawMaterialID: "milk", Quantity: dec("2"), Unit: "l"}}
	more := IngredientSet{{RawMaterialID: "milk", Quantity: dec("3"), Unit: "l"}}
	longer := append(IngredientSet{}, base...)
	longer = append(longer, Ingredient{RawMaterialID: "tea", Quantity: dec("1"), Unit: "g"})

	if base.Compare(more) >= 0 || more.Compare(base) <= 0 {
		t.Error("Expected quantity to order the sets")
	}
	if base.Compare(longer) >= 0 {
		t.Error("Expected the shorter prefix to sort first")
	}
	if base.Compare(base) != 0 {
		t.Error("Expected a set to equal itself")
	}
}

func TestSameRecipe(t *testing.T) {
	batch := &model.RecipeBatch{
		ProducibleQuantity: dec("50"),
		Ingredients: []model.RecipeIngredient{
			{RawMaterialID: "tea", QuantityNeeded: dec("100"), Unit: "g"},
			{RawMaterialID: "milk", QuantityNeeded: dec("2"), Unit: "l"},
		},
	}
	set, err := Canonicalize([]model.IngredientSpec{
		{RawMaterialID: "milk", Quantity: dec("2"), Unit: "l"},
		{RawMaterialID: "tea", Quantity: dec("100"), Unit: "g"},
	})
	if err != nil {
		t.Fatalf("Failed to canonicalize: %v", err)
	}

	if !SameRecipe(batch, set, dec("50")) {
		t.Error("Expected the batch to match its own recipe")
	}
	if SameRecipe(batch, set, dec("40")) {
		t.Error("Expected a different yield to be a different recipe")
	}
}
