package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/audit"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store/pgtx"
	"github.com/jmoiron/sqlx"
)

var _ audit.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ext(ctx context.Context) sqlx.ExtContext {
	return pgtx.Executor(ctx, r.DB)
}

func (r *PGRepository) CreateProductionEvent(ctx context.Context, e *model.ProductionEvent) error {
	query := `
        INSERT INTO production_events (
            id, store_id, kind, template_id, batch_id, product_stock_id,
            quantity, ratio, reversal_of, reversed_by, actor_id, note, created_at
        )
        VALUES (
            :id, :store_id, :kind, :template_id, :batch_id, :product_stock_id,
            :quantity, :ratio, :reversal_of, :reversed_by, :actor_id, :note, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, e); err != nil {
		return fmt.Errorf("failed to append production event: %w", err)
	}

	if len(e.Lines) == 0 {
		return nil
	}
	lineQuery := `
        INSERT INTO production_event_lines (id, event_id, raw_material_id, quantity, unit)
        VALUES (:id, :event_id, :raw_material_id, :quantity, :unit)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), lineQuery, e.Lines); err != nil {
		return fmt.Errorf("failed to append production event lines: %w", err)
	}
	return nil
}

func (r *PGRepository) GetProductionEvent(ctx context.Context, id string) (*model.ProductionEvent, error) {
	var e model.ProductionEvent
	if err := sqlx.GetContext(ctx, r.ext(ctx), &e, `SELECT * FROM production_events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get production event: %w", err)
	}

	events := []model.ProductionEvent{e}
	if err := r.attachLines(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

func (r *PGRepository) MarkReversed(ctx context.Context, eventID, reversalID string) error {
	res, err := r.ext(ctx).ExecContext(ctx,
		`UPDATE production_events SET reversed_by = $2 WHERE id = $1 AND reversed_by IS NULL`, eventID, reversalID)
	if err != nil {
		return fmt.Errorf("failed to mark production event reversed: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	existing, err := r.GetProductionEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("production event", eventID)
	}
	return apperr.ErrAlreadyReversed
}

func (r *PGRepository) ListProductionEvents(ctx context.Context, f *dto.LedgerFilters) ([]model.ProductionEvent, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "e.store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.TemplateID != "" {
		conditions = append(conditions, "e.template_id = :template_id")
		args["template_id"] = f.TemplateID
	}
	if f.Kind != "" {
		conditions = append(conditions, "e.kind = :kind")
		args["kind"] = f.Kind
	}
	if f.RawMaterialID != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM production_event_lines l WHERE l.event_id = e.id AND l.raw_material_id = :raw_material_id)")
		args["raw_material_id"] = f.RawMaterialID
	}
	appendDateRange(&conditions, args, "e.created_at", f)

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM production_events e"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count production events: %w", err)
	}

	query, params, err := sqlx.Named("SELECT e.* FROM production_events e"+whereClause+" ORDER BY e.created_at DESC, e.id"+paging(f), args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.ProductionEvent{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), params...); err != nil {
		return nil, 0, fmt.Errorf("failed to list production events: %w", err)
	}
	if err := r.attachLines(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) attachLines(ctx context.Context, events []model.ProductionEvent) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]string, len(events))
	index := make(map[string]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
		index[e.ID] = i
		events[i].Lines = []model.ProductionEventLine{}
	}

	query, args, err := sqlx.In(`SELECT * FROM production_event_lines WHERE event_id IN (?) ORDER BY event_id, raw_material_id`, ids)
	if err != nil {
		return err
	}

	var rows []model.ProductionEventLine
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &rows, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load production event lines: %w", err)
	}
	for _, row := range rows {
		i := index[row.EventID]
		events[i].Lines = append(events[i].Lines, row)
	}
	return nil
}

func (r *PGRepository) CreatePurchase(ctx context.Context, p *model.PurchaseLog) error {
	query := `
        INSERT INTO purchase_logs (
            id, store_id, raw_material_id, quantity, unit, unit_price, total_cost,
            supplier, reference_id, actor_id, note, created_at
        )
        VALUES (
            :id, :store_id, :raw_material_id, :quantity, :unit, :unit_price, :total_cost,
            :supplier, :reference_id, :actor_id, :note, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, p); err != nil {
		return fmt.Errorf("failed to append purchase log: %w", err)
	}
	return nil
}

func (r *PGRepository) ListPurchases(ctx context.Context, f *dto.LedgerFilters) ([]model.PurchaseLog, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.RawMaterialID != "" {
		conditions = append(conditions, "raw_material_id = :raw_material_id")
		args["raw_material_id"] = f.RawMaterialID
	}
	appendDateRange(&conditions, args, "created_at", f)

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM purchase_logs"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase logs: %w", err)
	}

	query, params, err := sqlx.Named("SELECT * FROM purchase_logs"+whereClause+" ORDER BY created_at DESC, id"+paging(f), args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.PurchaseLog{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), params...); err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase logs: %w", err)
	}
	return items, count, nil
}

func appendDateRange(conditions *[]string, args map[string]interface{}, column string, f *dto.LedgerFilters) {
	if f.StartDate != nil {
		*conditions = append(*conditions, column+" >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		*conditions = append(*conditions, column+" < :end_date")
		args["end_date"] = *f.EndDate
	}
}

func paging(f *dto.LedgerFilters) string {
	if f.PageSize <= 0 {
		return ""
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
}
