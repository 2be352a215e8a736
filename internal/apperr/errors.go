package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidYield        = errors.New("invalid yield")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrEmptyIngredients    = errors.New("empty ingredient list")
	ErrDuplicateIngredient = errors.New("duplicate ingredient")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrLastBatch           = errors.New("cannot deactivate the last active batch")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrPersistence         = errors.New("persistence failure")
	ErrNotFound            = errors.New("not found")
	ErrAmbiguousBatch      = errors.New("batch selection is ambiguous")
	ErrAlreadyReversed     = errors.New("production event already reversed")
)

// ValidationError rejects bad input before any stock is touched.
// Kind is one of the specific sentinels above, or nil for a generic rule failure.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
	Kind    error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed on %s (%s): %s", e.Field, e.Rule, e.Message)
	}
	return fmt.Sprintf("validation failed on %s (%s)", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Kind}
}

func NewValidation(field, rule, message string, kind error) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message, Kind: kind}
}

// InsufficientStockError carries the full per-ingredient shortage detail.
type InsufficientStockError struct {
	Report *model.ShortageReport
}

func (e *InsufficientStockError) Error() string {
	if e.Report == nil {
		return ErrInsufficientStock.Error()
	}
	parts := make([]string, 0, len(e.Report.Lines))
	for _, l := range e.Report.Shortages() {
		parts = append(parts, fmt.Sprintf("%s (required=%s, available=%s, deficit=%s)",
			l.RawMaterialID, l.Required.String(), l.Available.String(), l.Deficit.String()))
	}
	return fmt.Sprintf("insufficient stock: %s", strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type LastBatchError struct {
	TemplateID string
	BatchID    string
}

func (e *LastBatchError) Error() string {
	return fmt.Sprintf("batch %s is the last active batch of template %s", e.BatchID, e.TemplateID)
}

func (e *LastBatchError) Unwrap() error { return ErrLastBatch }

// ConcurrencyConflictError is transient; the caller may retry the whole request.
type ConcurrencyConflictError struct {
	Attempts int
	Err      error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("concurrency conflict after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("concurrency conflict: %v", e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConcurrencyConflict}
	}
	return []error{ErrConcurrencyConflict, e.Err}
}

// PersistenceError means the underlying store is unavailable. It is never retried here.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// IsRetryable reports whether err is a transient conflict.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
