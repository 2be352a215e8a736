package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/shopspring/decimal"
)

func TestErrorsUnwrapToSentinels(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		target error
	}{
		{"validation generic", NewValidation("name", "required", "", nil), ErrValidation},
		{"validation yield", NewValidation("yield", "gt", "must be positive", ErrInvalidYield), ErrInvalidYield},
		{"validation yield is validation", NewValidation("yield", "gt", "", ErrInvalidYield), ErrValidation},
		{"insufficient", &InsufficientStockError{}, ErrInsufficientStock},
		{"last batch", &LastBatchError{TemplateID: "t", BatchID: "b"}, ErrLastBatch},
		{"conflict", &ConcurrencyConflictError{Attempts: 3, Err: errors.New("40001")}, ErrConcurrencyConflict},
		{"persistence", &PersistenceError{Op: "commit", Err: errors.New("conn reset")}, ErrPersistence},
		{"not found", NotFound("batch", "b1"), ErrNotFound},
		{"wrapped twice", fmt.Errorf("produce: %w", &LastBatchError{}), ErrLastBatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.target) {
				t.Errorf("Expected %v to match %v", tc.err, tc.target)
			}
		})
	}
}

func TestInsufficientStockMessageListsShortagesOnly(t *testing.T) {
	err := &InsufficientStockError{Report: &model.ShortageReport{
		Lines: []model.ShortageLine{
			{RawMaterialID: "milk", Status: model.StatusSufficient, Required: decimal.NewFromInt(4), Available: decimal.NewFromInt(10)},
			{RawMaterialID: "tea", Status: model.StatusShortage, Required: decimal.NewFromInt(200), Available: decimal.NewFromInt(150), Deficit: decimal.NewFromInt(50)},
		},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "tea (required=200, available=150, deficit=50)") {
		t.Errorf("Expected tea shortage in message, got %q", msg)
	}
	if strings.Contains(msg, "milk") {
		t.Errorf("Expected sufficient lines to be omitted, got %q", msg)
	}

	var target *InsufficientStockError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) || target.Report == nil {
		t.Fatalf("Expected errors.As to recover the report")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&ConcurrencyConflictError{Err: errors.New("x")}) {
		t.Errorf("Expected conflict to be retryable")
	}
	if IsRetryable(&PersistenceError{Op: "x", Err: errors.New("down")}) {
		t.Errorf("Expected persistence failure not to be retryable")
	}
	if IsRetryable(&InsufficientStockError{}) {
		t.Errorf("Expected insufficient stock not to be retryable")
	}
}
