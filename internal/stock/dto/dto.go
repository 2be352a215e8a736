package dto

import (
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

type RawMaterialFilters struct {
	StoreID         string `json:"store_id"`
	Search          string `json:"search"`
	IncludeInactive bool   `json:"include_inactive"`
}

type MovementFilters struct {
	StoreID      string             `json:"store_id"`
	StockKind    model.StockKind    `json:"stock_kind"`
	StockID      string             `json:"stock_id"`
	MovementType model.MovementType `json:"movement_type"`
	ReferenceID  string             `json:"reference_id"`
	StartDate    *time.Time         `json:"start_date"`
	EndDate      *time.Time         `json:"end_date"`
	Page         int                `json:"page"`
	PageSize     int                `json:"page_size"`
}
