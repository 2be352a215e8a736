package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", apperr.NewValidation("yield", "gt", "", apperr.ErrInvalidYield), codes.InvalidArgument},
		{"ambiguous batch", fmt.Errorf("choose one: %w", apperr.ErrAmbiguousBatch), codes.InvalidArgument},
		{"insufficient stock", &apperr.InsufficientStockError{}, codes.FailedPrecondition},
		{"last batch", &apperr.LastBatchError{TemplateID: "t", BatchID: "b"}, codes.FailedPrecondition},
		{"conflict", &apperr.ConcurrencyConflictError{Attempts: 4}, codes.Aborted},
		{"not found", apperr.NotFound("recipe template", "t1"), codes.NotFound},
		{"persistence", &apperr.PersistenceError{Op: "commit", Err: errors.New("conn reset")}, codes.Unavailable},
		{"cancelled", context.Canceled, codes.Canceled},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestStatusCarriesShortageReport(t *testing.T) {
	err := Status(&apperr.InsufficientStockError{Report: &model.ShortageReport{
		TemplateID: "t1",
		Lines: []model.ShortageLine{{
			RawMaterialID: "tea",
			Status:        model.StatusShortage,
			Required:      decimal.NewFromInt(200),
			Available:     decimal.NewFromInt(150),
			Deficit:       decimal.NewFromInt(50),
		}},
	}})

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		t.Fatalf("Expected FailedPrecondition status, got %v", err)
	}
	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("Expected 1 detail, got %d", len(details))
	}
	report, ok := details[0].(*structpb.Struct)
	if !ok {
		t.Fatalf("Expected Struct detail, got %T", details[0])
	}
	lines := report.Fields["lines"].GetListValue().GetValues()
	if len(lines) != 1 || lines[0].GetStructValue().Fields["deficit"].GetStringValue() != "50" {
		t.Errorf("Expected deficit 50 in detail, got %v", report)
	}
}

type produceRequest struct {
	TemplateID string          `json:"template_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

func TestDecodeEncode(t *testing.T) {
	req, err := structpb.NewStruct(map[string]interface{}{"template_id": "t1", "quantity": 7.5})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var in produceRequest
	if err := Decode(req, &in); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if in.TemplateID != "t1" || !in.Quantity.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("Unexpected decode %+v", in)
	}

	out, err := Encode(in)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Fields["quantity"].GetStringValue() != "7.5" {
		t.Errorf("Expected quantity as decimal string, got %v", out.Fields["quantity"])
	}

	bad, _ := structpb.NewStruct(map[string]interface{}{"quantity": "lots"})
	if err := Decode(bad, &in); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
