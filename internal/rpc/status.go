package rpc

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// Code maps the error taxonomy onto gRPC codes.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrAmbiguousBatch):
		return codes.InvalidArgument
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrLastBatch), errors.Is(err, apperr.ErrAlreadyReversed):
		return codes.FailedPrecondition
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		return codes.Aborted
	case errors.Is(err, apperr.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, apperr.ErrPersistence):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// Status converts err to a gRPC status error. Validation failures carry the field and
// rule, stock shortages carry the full shortage report, both as Struct details.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	st := status.New(Code(err), err.Error())

	var detail interface{}
	var verr *apperr.ValidationError
	var short *apperr.InsufficientStockError
	switch {
	case errors.As(err, &verr):
		detail = map[string]string{"field": verr.Field, "rule": verr.Rule, "message": verr.Message}
	case errors.As(err, &short) && short.Report != nil:
		detail = short.Report
	}
	if detail == nil {
		return st.Err()
	}

	s, encErr := Encode(detail)
	if encErr != nil {
		return st.Err()
	}
	if withDetail, detErr := st.WithDetails(protoadapt.MessageV1Of(s)); detErr == nil {
		st = withDetail
	}
	return st.Err()
}
