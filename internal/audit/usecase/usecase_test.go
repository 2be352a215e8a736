package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var day = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*memory.Store, *auditUseCase) {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	uc := NewAuditUseCase(mem, nil, logger.NewNop()).(*auditUseCase)

	events := []*model.ProductionEvent{
		{ID: "e1", StoreID: "s1", Kind: model.EventProduction, TemplateID: "tea", BatchID: "b1",
			Quantity: decimal.NewFromInt(100), Ratio: decimal.NewFromInt(2), CreatedAt: day,
			Lines: []model.ProductionEventLine{
				{ID: "l1", EventID: "e1", RawMaterialID: "milk", Quantity: decimal.NewFromInt(4), Unit: "l"},
				{ID: "l2", EventID: "e1", RawMaterialID: "tea-powder", Quantity: decimal.NewFromInt(200), Unit: "g"},
			}},
		{ID: "e2", StoreID: "s1", Kind: model.EventProduction, TemplateID: "coffee", BatchID: "b2",
			Quantity: decimal.NewFromInt(10), Ratio: decimal.NewFromInt(1), CreatedAt: day.Add(48 * time.Hour),
			Lines: []model.ProductionEventLine{
				{ID: "l3", EventID: "e2", RawMaterialID: "milk", Quantity: decimal.NewFromInt(1), Unit: "l"},
			}},
		{ID: "e3", StoreID: "s2", Kind: model.EventProduction, TemplateID: "tea", BatchID: "b9",
			Quantity: decimal.NewFromInt(5), Ratio: decimal.NewFromInt(1), CreatedAt: day},
	}
	for _, e := range events {
		if err := uc.RecordProduction(ctx, e); err != nil {
			t.Fatalf("Failed to record event: %v", err)
		}
	}

	supplier := "Dairy Co"
	if err := uc.RecordPurchase(ctx, &model.PurchaseLog{
		ID: "p1", StoreID: "s1", RawMaterialID: "milk", Quantity: decimal.NewFromInt(20), Unit: "l",
		UnitPrice: decimal.RequireFromString("1.5"), TotalCost: decimal.NewFromInt(30), Supplier: &supplier, CreatedAt: day,
	}); err != nil {
		t.Fatalf("Failed to record purchase: %v", err)
	}
	return mem, uc
}

func TestListProductionEventsFilters(t *testing.T) {
	_, uc := seed(t)
	end := day.Add(24 * time.Hour)

	testCases := []struct {
		name    string
		filters dto.LedgerFilters
		want    []string
	}{
		{"store", dto.LedgerFilters{StoreID: "s1"}, []string{"e2", "e1"}},
		{"template", dto.LedgerFilters{StoreID: "s1", TemplateID: "tea"}, []string{"e1"}},
		{"raw material", dto.LedgerFilters{StoreID: "s1", RawMaterialID: "tea-powder"}, []string{"e1"}},
		{"date range", dto.LedgerFilters{StoreID: "s1", StartDate: &day, EndDate: &end}, []string{"e1"}},
		{"paged", dto.LedgerFilters{StoreID: "s1", Page: 2, PageSize: 1}, []string{"e1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := uc.ListProductionEvents(context.Background(), &tc.filters)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %d events, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("Expected event %s at %d, got %s", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestListRejectsInvertedRange(t *testing.T) {
	_, uc := seed(t)
	before := day.Add(-time.Hour)

	_, _, err := uc.ListPurchases(context.Background(), &dto.LedgerFilters{StoreID: "s1", StartDate: &day, EndDate: &before})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestGetProductionEventIsScopedToStore(t *testing.T) {
	_, uc := seed(t)

	if _, err := uc.GetProductionEvent(context.Background(), "s2", "e1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	e, err := uc.GetProductionEvent(context.Background(), "s1", "e1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(e.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(e.Lines))
	}
}

func TestExportWritesBothSheets(t *testing.T) {
	_, uc := seed(t)

	var buf bytes.Buffer
	if err := uc.Export(context.Background(), &buf, &dto.LedgerFilters{StoreID: "s1", Page: 1, PageSize: 1}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Expected a readable workbook, got %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(productionSheet)
	if err != nil {
		t.Fatalf("Expected production sheet, got %v", err)
	}
	// header plus one row per line of e2 and e1, paging ignored
	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}
	if rows[0][1] != "Event ID" || rows[1][1] != "e2" || rows[3][7] != "tea-powder" {
		t.Errorf("Unexpected production rows %v", rows)
	}

	rows, err = f.GetRows(purchaseSheet)
	if err != nil {
		t.Fatalf("Expected purchases sheet, got %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "p1" || rows[1][7] != "Dairy Co" {
		t.Errorf("Unexpected purchase rows %v", rows)
	}
}

type recordingIndexer struct {
	mu   sync.Mutex
	docs map[string]string
	err  error
}

func (r *recordingIndexer) IndexDocument(ctx context.Context, index, id string, doc interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs == nil {
		r.docs = map[string]string{}
	}
	r.docs[id] = index
	return r.err
}

func TestIndexing(t *testing.T) {
	es := &recordingIndexer{}
	uc := NewAuditUseCase(memory.New(), es, logger.NewNop())

	uc.IndexProduction(context.Background(), &model.ProductionEvent{ID: "e1"})
	uc.IndexPurchase(context.Background(), &model.PurchaseLog{ID: "p1"})

	if es.docs["e1"] != productionIndex || es.docs["p1"] != purchaseIndex {
		t.Errorf("Expected documents in their indexes, got %v", es.docs)
	}

	failing := NewAuditUseCase(memory.New(), &recordingIndexer{err: errors.New("es down")}, logger.NewNop())
	failing.IndexProduction(context.Background(), &model.ProductionEvent{ID: "e1"})

	NewAuditUseCase(memory.New(), nil, logger.NewNop()).IndexProduction(context.Background(), &model.ProductionEvent{ID: "e1"})
}
