package model

import "github.com/shopspring/decimal"

type ShortageStatus string

const (
	StatusSufficient ShortageStatus = "sufficient"
	StatusShortage   ShortageStatus = "shortage"
)

// Requirement is the total amount of one raw material a production run needs.
type Requirement struct {
	RawMaterialID string          `json:"raw_material_id"`
	Unit          string          `json:"unit"`
	Required      decimal.Decimal `json:"required"`
}

type ShortageLine struct {
	RawMaterialID string          `json:"raw_material_id"`
	Unit          string          `json:"unit"`
	Status        ShortageStatus  `json:"status"`
	Required      decimal.Decimal `json:"required"`
	Available     decimal.Decimal `json:"available"`
	Deficit       decimal.Decimal `json:"deficit"` // zero when sufficient
}

type ShortageReport struct {
	TemplateID string          `json:"template_id"`
	BatchID    string          `json:"batch_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Ratio      decimal.Decimal `json:"ratio"`
	Lines      []ShortageLine  `json:"lines"`
}

// Feasible reports whether no line is short.
func (r *ShortageReport) Feasible() bool {
	for _, l := range r.Lines {
		if l.Status == StatusShortage {
			return false
		}
	}
	return true
}

func (r *ShortageReport) Shortages() []ShortageLine {
	var out []ShortageLine
	for _, l := range r.Lines {
		if l.Status == StatusShortage {
			out = append(out, l)
		}
	}
	return out
}
