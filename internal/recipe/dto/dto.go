package dto

type TemplateFilters struct {
	StoreID         string `json:"store_id"`
	Name            string `json:"name"` // case-insensitive exact match
	Unit            string `json:"unit"` // case-insensitive exact match
	HasIngredients  *bool  `json:"has_ingredients"`
	IncludeInactive bool   `json:"include_inactive"`
	Page            int    `json:"page"`
	PageSize        int    `json:"page_size"`
}
