package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit"
	"github.com/fekuna/omnipos-production-service/internal/metrics"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	recipedto "github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	stockdto "github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
	"github.com/fekuna/omnipos-production-service/internal/validation"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const referenceType = "production_event"

type Options struct {
	MaxConflictRetries int
	LockTTL            time.Duration
	Locker             production.Locker    // optional
	Publisher          production.Publisher // optional
}

type productionUseCase struct {
	stock     stock.UseCase
	recipes   recipe.UseCase
	audit     audit.UseCase
	tx        store.Transactor
	locker    production.Locker
	publisher production.Publisher
	retries   int
	lockTTL   time.Duration
	tracer    trace.Tracer
	logger    logger.ZapLogger
}

func NewProductionUseCase(stockUC stock.UseCase, recipeUC recipe.UseCase, auditUC audit.UseCase, tx store.Transactor, opts Options, log logger.ZapLogger) production.UseCase {
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	return &productionUseCase{
		stock:     stockUC,
		recipes:   recipeUC,
		audit:     auditUC,
		tx:        tx,
		locker:    opts.Locker,
		publisher: opts.Publisher,
		retries:   opts.MaxConflictRetries,
		lockTTL:   opts.LockTTL,
		tracer:    otel.Tracer("omnipos-production-service/production"),
		logger:    log,
	}
}

// run is one production or reversal request moving through its states.
type run struct {
	span    trace.Span
	log     logger.ZapLogger
	started time.Time
	state   model.ProductionState
}

func (uc *productionUseCase) begin(ctx context.Context, name string, fields ...zap.Field) (context.Context, *run) {
	ctx, span := uc.tracer.Start(ctx, name)
	r := &run{span: span, log: uc.logger.With(fields...), started: time.Now()}
	r.enter(model.StateRequested)
	return ctx, r
}

func (r *run) enter(state model.ProductionState, fields ...zap.Field) {
	r.state = state
	r.span.AddEvent(string(state))
	r.log.Info("Production state changed", append([]zap.Field{zap.String("state", string(state))}, fields...)...)
}

// end closes the run in a terminal state derived from err.
func (r *run) end(err error) {
	defer r.span.End()

	switch {
	case err == nil:
		r.enter(model.StateCommitted)
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrAmbiguousBatch), errors.Is(err, apperr.ErrAlreadyReversed):
		r.enter(model.StateRejected, zap.Error(err))
	default:
		r.enter(model.StateAborted, zap.Error(err))
	}
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}

	metrics.ProductionRuns.WithLabelValues(string(r.state)).Inc()
	metrics.ProductionDuration.WithLabelValues(string(r.state)).Observe(time.Since(r.started).Seconds())
}

func (uc *productionUseCase) Produce(ctx context.Context, input *dto.ProduceInput) (result *model.ProductionResult, err error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	// Cancellation is honored only until the unit of work starts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, r := uc.begin(ctx, "production.Produce",
		zap.String("store_id", input.StoreID),
		zap.String("template_id", input.TemplateID),
		zap.String("quantity", input.Quantity.String()),
	)
	defer func() { r.end(err) }()
	r.span.SetAttributes(
		attribute.String("store_id", input.StoreID),
		attribute.String("template_id", input.TemplateID),
		attribute.String("quantity", input.Quantity.String()),
	)

	template, batch, err := uc.resolve(ctx, input.StoreID, input.TemplateID, input.BatchID)
	if err != nil {
		return nil, err
	}
	reqs, ratio, err := production.Requirements(batch, input.Quantity)
	if err != nil {
		return nil, err
	}

	r.enter(model.StateValidating, zap.String("batch_id", batch.ID), zap.String("ratio", ratio.String()))
	available, err := uc.stock.Available(ctx, input.StoreID, production.MaterialIDs(reqs), false)
	if err != nil {
		return nil, err
	}
	if report := production.BuildShortageReport(batch, input.Quantity, ratio, reqs, available); !report.Feasible() {
		return nil, &apperr.InsufficientStockError{Report: report}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := uc.lockStore(ctx, input.StoreID, r.log)
	defer release()

	r.enter(model.StateCommitting)
	txCtx := context.WithoutCancel(ctx)

	var (
		event   *model.ProductionEvent
		product *model.ProductStock
	)
	attempts, err := uc.withRetry(txCtx, r.log, func(ctx context.Context) error {
		available, err := uc.stock.Available(ctx, input.StoreID, production.MaterialIDs(reqs), true)
		if err != nil {
			return err
		}
		if report := production.BuildShortageReport(batch, input.Quantity, ratio, reqs, available); !report.Feasible() {
			return &apperr.InsufficientStockError{Report: report}
		}

		event = &model.ProductionEvent{
			ID:         uuid.New().String(),
			StoreID:    input.StoreID,
			Kind:       model.EventProduction,
			TemplateID: template.ID,
			BatchID:    batch.ID,
			Quantity:   input.Quantity,
			Ratio:      ratio,
			ActorID:    optional(input.UserID),
			Note:       input.Note,
			CreatedAt:  time.Now(),
			Lines:      make([]model.ProductionEventLine, 0, len(reqs)),
		}

		for _, req := range reqs {
			if _, err := uc.stock.Adjust(ctx, &stockdto.AdjustInput{
				StoreID:       input.StoreID,
				Kind:          model.StockKindRawMaterial,
				StockID:       req.RawMaterialID,
				Delta:         req.Required.Neg(),
				MovementType:  model.MovementProduction,
				ReferenceType: referenceType,
				ReferenceID:   event.ID,
				Notes:         input.Note,
				UserID:        input.UserID,
			}); err != nil {
				return err
			}
			event.Lines = append(event.Lines, model.ProductionEventLine{
				ID:            uuid.New().String(),
				EventID:       event.ID,
				RawMaterialID: req.RawMaterialID,
				Quantity:      req.Required,
				Unit:          req.Unit,
			})
		}

		product, err = uc.stock.EnsureProductStock(ctx, template)
		if err != nil {
			return err
		}
		m, err := uc.stock.Adjust(ctx, &stockdto.AdjustInput{
			StoreID:       input.StoreID,
			Kind:          model.StockKindProduct,
			StockID:       product.ID,
			Delta:         input.Quantity,
			MovementType:  model.MovementProduction,
			ReferenceType: referenceType,
			ReferenceID:   event.ID,
			Notes:         input.Note,
			UserID:        input.UserID,
		})
		if err != nil {
			return err
		}
		product.Quantity = m.QuantityAfter

		if err := uc.stock.RecordLastBatch(ctx, product.ID, batch.ID); err != nil {
			return err
		}
		batchID := batch.ID
		product.LastBatchID = &batchID

		event.ProductStockID = product.ID
		return uc.audit.RecordProduction(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(txCtx, input.StoreID, event, r.log)
	return &model.ProductionResult{
		State:        model.StateCommitted,
		Event:        event,
		ProductStock: product,
		Attempts:     attempts,
	}, nil
}

func (uc *productionUseCase) GetShortageReport(ctx context.Context, input *dto.ShortageInput) (*model.ShortageReport, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	_, batch, err := uc.resolve(ctx, input.StoreID, input.TemplateID, input.BatchID)
	if err != nil {
		return nil, err
	}
	reqs, ratio, err := production.Requirements(batch, input.Quantity)
	if err != nil {
		return nil, err
	}
	available, err := uc.stock.Available(ctx, input.StoreID, production.MaterialIDs(reqs), false)
	if err != nil {
		return nil, err
	}
	return production.BuildShortageReport(batch, input.Quantity, ratio, reqs, available), nil
}

// ReverseProduction undoes a committed production run as a new unit of work:
// ingredients are credited back and the product is debited.
func (uc *productionUseCase) ReverseProduction(ctx context.Context, input *dto.ReverseInput) (result *model.ProductionResult, err error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, r := uc.begin(ctx, "production.Reverse",
		zap.String("store_id", input.StoreID),
		zap.String("event_id", input.EventID),
	)
	defer func() { r.end(err) }()
	r.span.SetAttributes(
		attribute.String("store_id", input.StoreID),
		attribute.String("event_id", input.EventID),
	)

	original, err := uc.audit.GetProductionEvent(ctx, input.StoreID, input.EventID)
	if err != nil {
		return nil, err
	}
	if original.Kind != model.EventProduction {
		return nil, apperr.NewValidation("event_id", "production", "only production events can be reversed", nil)
	}
	if original.ReversedBy != nil {
		return nil, apperr.ErrAlreadyReversed
	}

	r.enter(model.StateValidating)
	release := uc.lockStore(ctx, input.StoreID, r.log)
	defer release()

	r.enter(model.StateCommitting)
	txCtx := context.WithoutCancel(ctx)

	var (
		event   *model.ProductionEvent
		product *model.ProductStock
	)
	attempts, err := uc.withRetry(txCtx, r.log, func(ctx context.Context) error {
		originalID := original.ID
		event = &model.ProductionEvent{
			ID:             uuid.New().String(),
			StoreID:        original.StoreID,
			Kind:           model.EventReversal,
			TemplateID:     original.TemplateID,
			BatchID:        original.BatchID,
			ProductStockID: original.ProductStockID,
			Quantity:       original.Quantity,
			Ratio:          original.Ratio,
			ReversalOf:     &originalID,
			ActorID:        optional(input.UserID),
			Note:           input.Reason,
			CreatedAt:      time.Now(),
			Lines:          make([]model.ProductionEventLine, 0, len(original.Lines)),
		}

		m, err := uc.stock.Adjust(ctx, &stockdto.AdjustInput{
			StoreID:       original.StoreID,
			Kind:          model.StockKindProduct,
			StockID:       original.ProductStockID,
			Delta:         original.Quantity.Neg(),
			MovementType:  model.MovementReversal,
			ReferenceType: referenceType,
			ReferenceID:   event.ID,
			Notes:         input.Reason,
			UserID:        input.UserID,
		})
		if err != nil {
			return err
		}

		for _, l := range original.Lines {
			if _, err := uc.stock.Adjust(ctx, &stockdto.AdjustInput{
				StoreID:       original.StoreID,
				Kind:          model.StockKindRawMaterial,
				StockID:       l.RawMaterialID,
				Delta:         l.Quantity,
				MovementType:  model.MovementReversal,
				ReferenceType: referenceType,
				ReferenceID:   event.ID,
				Notes:         input.Reason,
				UserID:        input.UserID,
			}); err != nil {
				return err
			}
			event.Lines = append(event.Lines, model.ProductionEventLine{
				ID:            uuid.New().String(),
				EventID:       event.ID,
				RawMaterialID: l.RawMaterialID,
				Quantity:      l.Quantity,
				Unit:          l.Unit,
			})
		}

		if err := uc.audit.MarkReversed(ctx, original.ID, event.ID); err != nil {
			return err
		}
		if err := uc.audit.RecordProduction(ctx, event); err != nil {
			return err
		}

		product, err = uc.stock.GetProductStock(ctx, original.StoreID, original.ProductStockID)
		if err != nil {
			return err
		}
		product.Quantity = m.QuantityAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(txCtx, input.StoreID, event, r.log)
	return &model.ProductionResult{
		State:        model.StateCommitted,
		Event:        event,
		ProductStock: product,
		Attempts:     attempts,
	}, nil
}

func (uc *productionUseCase) RegisterProduct(ctx context.Context, input *dto.RegisterProductInput) (*dto.RegisterProductResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	resolved, err := uc.recipes.ResolveOrCreateTemplate(ctx, &recipedto.ResolveTemplateInput{
		StoreID: input.StoreID,
		Name:    input.Name,
		Unit:    input.Unit,
		Kind:    model.SimpleKind{},
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.RegisterProductResult{Template: resolved.Template, Created: resolved.Created}
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.stock.EnsureProductStock(ctx, resolved.Template)
		if err != nil {
			return err
		}
		if resolved.Created && input.OpeningQuantity.IsPositive() {
			p, err = uc.stock.RestockProduct(ctx, &stockdto.RestockProductInput{
				StoreID:        input.StoreID,
				ProductStockID: p.ID,
				Quantity:       input.OpeningQuantity,
				Note:           "Opening balance",
				UserID:         input.UserID,
			})
			if err != nil {
				return err
			}
		}
		result.ProductStock = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.stock.InvalidateStore(ctx, input.StoreID)
	return result, nil
}

// resolve loads the template and picks the batch to produce from. Without an explicit
// batch the batch used by the previous run wins while it stays active.
func (uc *productionUseCase) resolve(ctx context.Context, storeID, templateID string, batchID *string) (*model.RecipeTemplate, *model.RecipeBatch, error) {
	template, err := uc.recipes.GetTemplate(ctx, storeID, templateID)
	if err != nil {
		return nil, nil, err
	}
	if !template.IsActive {
		return nil, nil, apperr.NewValidation("template_id", "active", "template is deactivated", nil)
	}
	if !template.HasIngredients {
		return nil, nil, apperr.NewValidation("template_id", "manufactured", "template has no recipe, restock it instead", nil)
	}

	if batchID == nil || *batchID == "" {
		p, err := uc.stock.ProductStockForTemplate(ctx, storeID, template.ID)
		if err != nil {
			return nil, nil, err
		}
		if p != nil && p.LastBatchID != nil {
			for i := range template.Batches {
				if b := &template.Batches[i]; b.ID == *p.LastBatchID && b.IsActive {
					return template, b, nil
				}
			}
		}
	}

	batch, err := recipe.SelectBatch(template.Batches, batchID)
	if err != nil {
		return nil, nil, err
	}
	return template, batch, nil
}

// withRetry runs fn in a unit of work, rerunning it from the start after a concurrency
// conflict. A failed attempt rolled back completely, so nothing is applied twice.
func (uc *productionUseCase) withRetry(ctx context.Context, log logger.ZapLogger, fn func(ctx context.Context) error) (int, error) {
	attempts := 0
	for {
		attempts++
		err := uc.tx.WithinTx(ctx, fn)
		if err == nil {
			return attempts, nil
		}
		if !apperr.IsRetryable(err) {
			return attempts, err
		}
		if attempts > uc.retries {
			return attempts, &apperr.ConcurrencyConflictError{Attempts: attempts, Err: err}
		}
		metrics.ProductionConflictRetries.Inc()
		log.Warn("Retrying production after concurrency conflict", zap.Int("attempt", attempts), zap.Error(err))
	}
}

// lockStore takes the per-store production lock. Failing to get it only costs
// contention on the row locks, so the run goes on without it.
func (uc *productionUseCase) lockStore(ctx context.Context, storeID string, log logger.ZapLogger) func() {
	if uc.locker == nil {
		return func() {}
	}
	unlock, err := uc.locker.Obtain(ctx, "production:lock:"+storeID, uc.lockTTL)
	if err != nil {
		log.Warn("Proceeding without store production lock", zap.Error(err))
		return func() {}
	}
	return func() {
		if err := unlock(context.Background()); err != nil {
			log.Warn("Failed to release store production lock", zap.Error(err))
		}
	}
}

func (uc *productionUseCase) afterCommit(ctx context.Context, storeID string, event *model.ProductionEvent, log logger.ZapLogger) {
	uc.stock.InvalidateStore(ctx, storeID)

	if uc.publisher != nil {
		if err := uc.publisher.PublishCommitted(ctx, event); err != nil {
			log.Error("Failed to publish production event", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	go uc.audit.IndexProduction(context.Background(), event)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
