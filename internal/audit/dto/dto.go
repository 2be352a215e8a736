package dto

import (
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

// LedgerFilters selects audit rows. StartDate is inclusive, EndDate exclusive.
type LedgerFilters struct {
	StoreID       string                    `json:"store_id"`
	TemplateID    string                    `json:"template_id"`
	RawMaterialID string                    `json:"raw_material_id"`
	Kind          model.ProductionEventKind `json:"kind"`
	StartDate     *time.Time                `json:"start_date"`
	EndDate       *time.Time                `json:"end_date"`
	Page          int                       `json:"page"`
	PageSize      int                       `json:"page_size"`
}
