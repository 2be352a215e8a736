package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductionState string

const (
	StateRequested  ProductionState = "requested"
	StateValidating ProductionState = "validating"
	StateRejected   ProductionState = "rejected"
	StateCommitting ProductionState = "committing"
	StateCommitted  ProductionState = "committed"
	StateAborted    ProductionState = "aborted"
)

type ProductionEventKind string

const (
	EventProduction ProductionEventKind = "production"
	EventReversal   ProductionEventKind = "reversal"
)

// ProductionEvent is the immutable audit record of one production run or its reversal.
// ReversedBy is the only column written after insert.
type ProductionEvent struct {
	ID             string                `db:"id" json:"id"`
	StoreID        string                `db:"store_id" json:"store_id"`
	Kind           ProductionEventKind   `db:"kind" json:"kind"`
	TemplateID     string                `db:"template_id" json:"template_id"`
	BatchID        string                `db:"batch_id" json:"batch_id"`
	ProductStockID string                `db:"product_stock_id" json:"product_stock_id"`
	Quantity       decimal.Decimal       `db:"quantity" json:"quantity"`
	Ratio          decimal.Decimal       `db:"ratio" json:"ratio"`
	ReversalOf     *string               `db:"reversal_of" json:"reversal_of"`
	ReversedBy     *string               `db:"reversed_by" json:"reversed_by"`
	ActorID        *string               `db:"actor_id" json:"actor_id"`
	Note           string                `db:"note" json:"note"`
	CreatedAt      time.Time             `db:"created_at" json:"created_at"`
	Lines          []ProductionEventLine `db:"-" json:"lines"`
}

// ProductionEventLine is the quantity of one raw material moved by an event.
type ProductionEventLine struct {
	ID            string          `db:"id" json:"id"`
	EventID       string          `db:"event_id" json:"event_id"`
	RawMaterialID string          `db:"raw_material_id" json:"raw_material_id"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Unit          string          `db:"unit" json:"unit"`
}

type ProductionResult struct {
	State        ProductionState  `json:"state"`
	Event        *ProductionEvent `json:"event"`
	ProductStock *ProductStock    `json:"product_stock"`
	Attempts     int              `json:"attempts"`
}
