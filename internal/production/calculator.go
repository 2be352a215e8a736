package production

import (
	"sort"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of decimal places kept when a division does not terminate.
const DivisionPrecision int32 = 18

// Ratio returns quantity / yield.
func Ratio(yield, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, apperr.NewValidation("quantity", "gt", "must be greater than 0", apperr.ErrInvalidQuantity)
	}
	if !yield.IsPositive() {
		return decimal.Zero, apperr.NewValidation("producible_quantity", "gt", "batch yield must be greater than 0", apperr.ErrInvalidYield)
	}
	return quantity.DivRound(yield, DivisionPrecision), nil
}

// Requirements scales every ingredient of batch to quantity units of product. Each
// requirement is quantityNeeded × quantity / yield, multiplied before dividing so an
// exact result is never rounded. The result is sorted by raw material id.
func Requirements(batch *model.RecipeBatch, quantity decimal.Decimal) ([]model.Requirement, decimal.Decimal, error) {
	ratio, err := Ratio(batch.ProducibleQuantity, quantity)
	if err != nil {
		return nil, decimal.Zero, err
	}

	byID := make(map[string]int, len(batch.Ingredients))
	out := make([]model.Requirement, 0, len(batch.Ingredients))
	for _, ing := range batch.Ingredients {
		required := ing.QuantityNeeded.Mul(quantity).DivRound(batch.ProducibleQuantity, DivisionPrecision)
		if i, ok := byID[ing.RawMaterialID]; ok {
			out[i].Required = out[i].Required.Add(required)
			continue
		}
		byID[ing.RawMaterialID] = len(out)
		out = append(out, model.Requirement{RawMaterialID: ing.RawMaterialID, Unit: ing.Unit, Required: required})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RawMaterialID < out[j].RawMaterialID })
	return out, ratio, nil
}

// MaterialIDs lists the raw materials of reqs in order.
func MaterialIDs(reqs []model.Requirement) []string {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.RawMaterialID
	}
	return ids
}
