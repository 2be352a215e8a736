package production

import (
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

// BuildShortageReport compares each requirement with the quantity on hand.
// Materials missing from available count as zero.
func BuildShortageReport(batch *model.RecipeBatch, quantity, ratio decimal.Decimal, reqs []model.Requirement, available map[string]decimal.Decimal) *model.ShortageReport {
	report := &model.ShortageReport{
		TemplateID: batch.TemplateID,
		BatchID:    batch.ID,
		Quantity:   quantity,
		Ratio:      ratio,
		Lines:      make([]model.ShortageLine, 0, len(reqs)),
	}
	for _, r := range reqs {
		have := available[r.RawMaterialID]
		line := model.ShortageLine{
			RawMaterialID: r.RawMaterialID,
			Unit:          r.Unit,
			Status:        model.StatusSufficient,
			Required:      r.Required,
			Available:     have,
			Deficit:       decimal.Zero,
		}
		if have.LessThan(r.Required) {
			line.Status = model.StatusShortage
			line.Deficit = r.Required.Sub(have)
		}
		report.Lines = append(report.Lines, line)
	}
	return report
}
