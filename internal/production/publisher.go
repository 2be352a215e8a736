package production

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

const EventTypeCommitted = "production.committed"

// CommittedMessage is the payload published after a production run or reversal commits.
type CommittedMessage struct {
	Type           string                    `json:"type"`
	EventID        string                    `json:"event_id"`
	Kind           model.ProductionEventKind `json:"kind"`
	StoreID        string                    `json:"store_id"`
	TemplateID     string                    `json:"template_id"`
	BatchID        string                    `json:"batch_id"`
	ProductStockID string                    `json:"product_stock_id"`
	Quantity       decimal.Decimal           `json:"quantity"`
	ReversalOf     *string                   `json:"reversal_of,omitempty"`
	Lines          []CommittedLine           `json:"lines"`
	OccurredAt     time.Time                 `json:"occurred_at"`
}

type CommittedLine struct {
	RawMaterialID string          `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
}

// MessageWriter is satisfied by broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type EventPublisher struct {
	writer MessageWriter
}

func NewEventPublisher(w MessageWriter) *EventPublisher {
	return &EventPublisher{writer: w}
}

// PublishCommitted keys messages by store so one store's events stay ordered.
func (p *EventPublisher) PublishCommitted(ctx context.Context, e *model.ProductionEvent) error {
	payload, err := json.Marshal(NewCommittedMessage(e))
	if err != nil {
		return fmt.Errorf("failed to marshal production event: %w", err)
	}
	if err := p.writer.Publish(ctx, e.StoreID, payload); err != nil {
		return fmt.Errorf("failed to publish production event %s: %w", e.ID, err)
	}
	return nil
}

func NewCommittedMessage(e *model.ProductionEvent) *CommittedMessage {
	msg := &CommittedMessage{
		Type:           EventTypeCommitted,
		EventID:        e.ID,
		Kind:           e.Kind,
		StoreID:        e.StoreID,
		TemplateID:     e.TemplateID,
		BatchID:        e.BatchID,
		ProductStockID: e.ProductStockID,
		Quantity:       e.Quantity,
		ReversalOf:     e.ReversalOf,
		Lines:          make([]CommittedLine, len(e.Lines)),
		OccurredAt:     e.CreatedAt,
	}
	for i, l := range e.Lines {
		msg.Lines[i] = CommittedLine{RawMaterialID: l.RawMaterialID, Quantity: l.Quantity, Unit: l.Unit}
	}
	return msg
}
