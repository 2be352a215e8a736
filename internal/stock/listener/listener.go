package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventRawMaterialPurchased = "RawMaterialPurchased"
	EventProductRestocked     = "ProductRestocked"
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// PurchaseListener applies stock increments published by the raw material inventory module.
type PurchaseListener struct {
	consumer MessageReader
	uc       stock.UseCase
	logger   logger.ZapLogger
}

func NewPurchaseListener(consumer MessageReader, uc stock.UseCase, logger logger.ZapLogger) *PurchaseListener {
	return &PurchaseListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *PurchaseListener) Start(ctx context.Context) {
	l.logger.Info("Starting purchase Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping purchase Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   StockPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type StockPayload struct {
	StoreID        string          `json:"store_id"`
	RawMaterialID  string          `json:"raw_material_id"`
	ProductStockID string          `json:"product_stock_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Supplier       string          `json:"supplier"`
	ReferenceID    string          `json:"reference_id"`
	Note           string          `json:"note"`
	UserID         string          `json:"user_id"`
}

func (l *PurchaseListener) processMessage(ctx context.Context, value []byte) {
	var event StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	p := event.Payload
	actor := p.UserID
	if actor == "" {
		actor = "system"
	}
	reference := p.ReferenceID
	if reference == "" {
		reference = event.EventID
	}

	switch event.EventType {
	case EventRawMaterialPurchased:
		l.logger.Info("Processing purchase event", zap.String("event_id", event.EventID), zap.String("raw_material_id", p.RawMaterialID))
		if _, err := l.uc.RecordPurchase(ctx, &dto.PurchaseInput{
			StoreID:       p.StoreID,
			RawMaterialID: p.RawMaterialID,
			Quantity:      p.Quantity,
			UnitPrice:     p.UnitPrice,
			Supplier:      p.Supplier,
			ReferenceID:   reference,
			Note:          p.Note,
			UserID:        actor,
		}); err != nil {
			l.logger.Error("Failed to record purchase",
				zap.String("event_id", event.EventID),
				zap.String("raw_material_id", p.RawMaterialID),
				zap.Error(err),
			)
		}
	case EventProductRestocked:
		l.logger.Info("Processing restock event", zap.String("event_id", event.EventID), zap.String("product_stock_id", p.ProductStockID))
		if _, err := l.uc.RestockProduct(ctx, &dto.RestockProductInput{
			StoreID:        p.StoreID,
			ProductStockID: p.ProductStockID,
			Quantity:       p.Quantity,
			Note:           p.Note,
			UserID:         actor,
		}); err != nil {
			l.logger.Error("Failed to restock product",
				zap.String("event_id", event.EventID),
				zap.String("product_stock_id", p.ProductStockID),
				zap.Error(err),
			)
		}
	}
}
