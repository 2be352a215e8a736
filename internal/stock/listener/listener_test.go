package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	auditdto "github.com/fekuna/omnipos-production-service/internal/audit/dto"
	auditusecase "github.com/fekuna/omnipos-production-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	stockusecase "github.com/fekuna/omnipos-production-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type queue struct {
	msgs [][]byte
	stop context.CancelFunc
}

func (q *queue) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(q.msgs) == 0 {
		q.stop()
		return kafka.Message{}, errors.New("drained")
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return kafka.Message{Value: m}, nil
}

func encode(t *testing.T, e StockEvent) []byte {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Failed to encode event: %v", err)
	}
	return b
}

func TestListenerRecordsPurchases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logger.NewNop()

	mem := memory.New()
	auditUC := auditusecase.NewAuditUseCase(mem, nil, log)
	uc := stockusecase.NewStockUseCase(mem, mem, auditUC, nil, 0, log)

	milk, err := uc.CreateRawMaterial(ctx, &dto.CreateRawMaterialInput{StoreID: "s1", Name: "Milk", Unit: "l"})
	if err != nil {
		t.Fatalf("Failed to create raw material: %v", err)
	}

	q := &queue{stop: cancel, msgs: [][]byte{
		encode(t, StockEvent{EventID: "ev-1", EventType: EventRawMaterialPurchased, Payload: StockPayload{
			StoreID: "s1", RawMaterialID: milk.ID, Quantity: decimal.NewFromInt(12), UnitPrice: decimal.RequireFromString("1.25"),
		}}),
		[]byte("not json"),
		encode(t, StockEvent{EventID: "ev-2", EventType: "OrderCreated"}),
		encode(t, StockEvent{EventID: "ev-3", EventType: EventRawMaterialPurchased, Payload: StockPayload{
			StoreID: "s1", RawMaterialID: milk.ID, Quantity: decimal.NewFromInt(-3),
		}}),
	}}

	NewPurchaseListener(q, uc, log).Start(ctx)

	got, err := uc.GetQuantity(context.Background(), "s1", model.StockRef{Kind: model.StockKindRawMaterial, ID: milk.ID})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected milk 12, got %s", got)
	}

	logs, total, err := auditUC.ListPurchases(context.Background(), &auditdto.LedgerFilters{StoreID: "s1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 1 {
		t.Fatalf("Expected 1 purchase log, got %d", total)
	}
	if logs[0].ReferenceID == nil || *logs[0].ReferenceID != "ev-1" {
		t.Errorf("Expected event id as reference, got %v", logs[0].ReferenceID)
	}
	if !logs[0].TotalCost.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected total cost 15, got %s", logs[0].TotalCost)
	}
}
