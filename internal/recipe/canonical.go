package recipe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// Ingredient is one ingredient in canonical form: unit trimmed and lower-cased,
// quantity compared by value.
type Ingredient struct {
	RawMaterialID string
	Quantity      decimal.Decimal
	Unit          string
}

// IngredientSet is a batch's ingredient list sorted by raw material id.
type IngredientSet []Ingredient

// ValidateRecipe checks the rules every batch must satisfy before anything is stored.
func ValidateRecipe(yield decimal.Decimal, specs []model.IngredientSpec) error {
	if !yield.IsPositive() {
		return apperr.NewValidation("yield", "gt", "must be greater than 0", apperr.ErrInvalidYield)
	}
	_, err := Canonicalize(specs)
	return err
}

// Canonicalize sorts specs by raw material id. It rejects an empty list,
// non-positive quantities and any raw material listed twice.
func Canonicalize(specs []model.IngredientSpec) (IngredientSet, error) {
	if len(specs) == 0 {
		return nil, apperr.NewValidation("ingredients", "min", "at least one ingredient is required", apperr.ErrEmptyIngredients)
	}

	seen := make(map[string]int, len(specs))
	set := make(IngredientSet, 0, len(specs))
	for i, spec := range specs {
		id := strings.TrimSpace(spec.RawMaterialID)
		if id == "" {
			return nil, apperr.NewValidation(fmt.Sprintf("ingredients[%d].raw_material_id", i), "required", "is required", nil)
		}
		if first, dup := seen[id]; dup {
			return nil, apperr.NewValidation(fmt.Sprintf("ingredients[%d].raw_material_id", i), "unique",
				fmt.Sprintf("raw material %s is already listed at ingredients[%d]", id, first), apperr.ErrDuplicateIngredient)
		}
		if !spec.Quantity.IsPositive() {
			return nil, apperr.NewValidation(fmt.Sprintf("ingredients[%d].quantity", i), "gt", "must be greater than 0", apperr.ErrInvalidQuantity)
		}
		seen[id] = i
		set = append(set, Ingredient{RawMaterialID: id, Quantity: spec.Quantity, Unit: normalizeUnit(spec.Unit)})
	}

	sort.Slice(set, func(i, j int) bool { return set[i].RawMaterialID < set[j].RawMaterialID })
	return set, nil
}

// SetOf returns the canonical ingredient set of a stored batch.
func SetOf(b *model.RecipeBatch) IngredientSet {
	set := make(IngredientSet, 0, len(b.Ingredients))
	for _, ing := range b.Ingredients {
		set = append(set, Ingredient{RawMaterialID: ing.RawMaterialID, Quantity: ing.QuantityNeeded, Unit: normalizeUnit(ing.Unit)})
	}
	sort.Slice(set, func(i, j int) bool { return set[i].RawMaterialID < set[j].RawMaterialID })
	return set
}

// Compare orders two canonical sets: element by element on raw material id, quantity
// and unit, then by length. It returns 0 only for identical multisets.
func (s IngredientSet) Compare(other IngredientSet) int {
	for i := 0; i < len(s) && i < len(other); i++ {
		a, b := s[i], other[i]
		if c := strings.Compare(a.RawMaterialID, b.RawMaterialID); c != 0 {
			return c
		}
		if c := a.Quantity.Cmp(b.Quantity); c != 0 {
			return c
		}
		if c := strings.Compare(a.Unit, b.Unit); c != 0 {
			return c
		}
	}
	switch {
	case len(s) < len(other):
		return -1
	case len(s) > len(other):
		return 1
	}
	return 0
}

func (s IngredientSet) Equal(other IngredientSet) bool {
	return s.Compare(other) == 0
}

// SameRecipe reports whether batch b makes yield units from exactly set.
func SameRecipe(b *model.RecipeBatch, set IngredientSet, yield decimal.Decimal) bool {
	return b.ProducibleQuantity.Equal(yield) && SetOf(b).Equal(set)
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}
