package recipe

import (
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

// SelectBatch picks the batch to produce from. An explicit id wins; otherwise the
// active batch named "standard recipe", then the default batch, then the only active
// batch. Two or more unflagged candidates are ambiguous.
func SelectBatch(batches []model.RecipeBatch, explicitBatchID *string) (*model.RecipeBatch, error) {
	if explicitBatchID != nil && *explicitBatchID != "" {
		for i := range batches {
			if batches[i].ID != *explicitBatchID {
				continue
			}
			if !batches[i].IsActive {
				return nil, apperr.NewValidation("batch_id", "active", "batch is deactivated", nil)
			}
			return &batches[i], nil
		}
		return nil, apperr.NotFound("recipe batch", *explicitBatchID)
	}

	var active []*model.RecipeBatch
	for i := range batches {
		if batches[i].IsActive {
			active = append(active, &batches[i])
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("no active batch: %w", apperr.ErrNotFound)
	}

	for _, b := range active {
		if strings.EqualFold(strings.TrimSpace(b.BatchName), model.StandardBatchName) {
			return b, nil
		}
	}
	for _, b := range active {
		if b.IsDefault {
			return b, nil
		}
	}
	if len(active) == 1 {
		return active[0], nil
	}

	names := make([]string, len(active))
	for i, b := range active {
		names[i] = b.BatchName
	}
	return nil, fmt.Errorf("choose one of %s: %w", strings.Join(names, ", "), apperr.ErrAmbiguousBatch)
}
