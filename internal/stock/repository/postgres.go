package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/stock/dto"
	"github.com/fekuna/omnipos-production-service/internal/store/pgtx"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var _ stock.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ext(ctx context.Context) sqlx.ExtContext {
	return pgtx.Executor(ctx, r.DB)
}

func (r *PGRepository) CreateRawMaterial(ctx context.Context, m *model.RawMaterial) error {
	query := `
        INSERT INTO raw_materials (id, store_id, name, unit, is_active, created_at, updated_at)
        VALUES (:id, :store_id, :name, :unit, :is_active, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, m); err != nil {
		return fmt.Errorf("failed to create raw material: %w", err)
	}
	return nil
}

func (r *PGRepository) GetRawMaterial(ctx context.Context, id string) (*model.RawMaterial, error) {
	var m model.RawMaterial
	err := sqlx.GetContext(ctx, r.ext(ctx), &m, `SELECT * FROM raw_materials WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw material: %w", err)
	}
	return &m, nil
}

func (r *PGRepository) ListRawMaterials(ctx context.Context, f *dto.RawMaterialFilters) ([]model.RawMaterial, error) {
	conditions := []string{"store_id = :store_id"}
	args := map[string]interface{}{"store_id": f.StoreID}

	if !f.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if f.Search != "" {
		conditions = append(conditions, "name ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}

	query := "SELECT * FROM raw_materials WHERE " + strings.Join(conditions, " AND ") + " ORDER BY name ASC"
	query, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}

	items := []model.RawMaterial{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), params...); err != nil {
		return nil, fmt.Errorf("failed to list raw materials: %w", err)
	}
	return items, nil
}

func (r *PGRepository) SetRawMaterialActive(ctx context.Context, id string, active bool) error {
	res, err := r.ext(ctx).ExecContext(ctx,
		`UPDATE raw_materials SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update raw material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("raw material", id)
	}
	return nil
}

func (r *PGRepository) CreateRawMaterialStock(ctx context.Context, s *model.RawMaterialStock) error {
	query := `
        INSERT INTO raw_material_stocks (id, store_id, raw_material_id, quantity, unit, last_purchase_price, updated_at)
        VALUES (:id, :store_id, :raw_material_id, :quantity, :unit, :last_purchase_price, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, s); err != nil {
		return fmt.Errorf("failed to create raw material stock: %w", err)
	}
	return nil
}

func (r *PGRepository) GetRawMaterialStock(ctx context.Context, storeID, rawMaterialID string) (*model.RawMaterialStock, error) {
	var s model.RawMaterialStock
	err := sqlx.GetContext(ctx, r.ext(ctx), &s,
		`SELECT * FROM raw_material_stocks WHERE store_id = $1 AND raw_material_id = $2`, storeID, rawMaterialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw material stock: %w", err)
	}
	return &s, nil
}

// GetRawMaterialStocks returns rows ordered by raw material id. With forUpdate the rows are
// locked in that order, so concurrent producers touching overlapping materials never deadlock.
func (r *PGRepository) GetRawMaterialStocks(ctx context.Context, storeID string, rawMaterialIDs []string, forUpdate bool) ([]model.RawMaterialStock, error) {
	items := []model.RawMaterialStock{}
	if len(rawMaterialIDs) == 0 {
		return items, nil
	}

	q := `SELECT * FROM raw_material_stocks WHERE store_id = ? AND raw_material_id IN (?) ORDER BY raw_material_id`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	query, args, err := sqlx.In(q, storeID, rawMaterialIDs)
	if err != nil {
		return nil, err
	}

	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get raw material stocks: %w", err)
	}
	return items, nil
}

func (r *PGRepository) ListRawMaterialStock(ctx context.Context, storeID string) ([]model.RawMaterialStock, error) {
	items := []model.RawMaterialStock{}
	err := sqlx.SelectContext(ctx, r.ext(ctx), &items,
		`SELECT * FROM raw_material_stocks WHERE store_id = $1 ORDER BY raw_material_id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw material stock: %w", err)
	}
	return items, nil
}

func (r *PGRepository) ApplyRawMaterialDelta(ctx context.Context, storeID, rawMaterialID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := sqlx.GetContext(ctx, r.ext(ctx), &after, `
        UPDATE raw_material_stocks
        SET quantity = quantity + $3, updated_at = NOW()
        WHERE store_id = $1 AND raw_material_id = $2 AND quantity + $3 >= 0
        RETURNING quantity
    `, storeID, rawMaterialID, delta)
	if err == nil {
		return after, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust raw material stock: %w", err)
	}

	existing, err := r.GetRawMaterialStock(ctx, storeID, rawMaterialID)
	if err != nil {
		return decimal.Zero, err
	}
	if existing == nil {
		return decimal.Zero, apperr.NotFound("raw material stock", rawMaterialID)
	}
	return decimal.Zero, apperr.ErrInsufficientStock
}

func (r *PGRepository) SetLastPurchasePrice(ctx context.Context, storeID, rawMaterialID string, price decimal.Decimal) error {
	_, err := r.ext(ctx).ExecContext(ctx, `
        UPDATE raw_material_stocks SET last_purchase_price = $3, updated_at = NOW()
        WHERE store_id = $1 AND raw_material_id = $2
    `, storeID, rawMaterialID, price)
	if err != nil {
		return fmt.Errorf("failed to set last purchase price: %w", err)
	}
	return nil
}

// CreateProductStock is a no-op when the template already has a stock row in the store;
// callers re-read with FindProductStockByTemplate.
func (r *PGRepository) CreateProductStock(ctx context.Context, p *model.ProductStock) error {
	query := `
        INSERT INTO product_stocks (
            id, store_id, name, unit, quantity, recipe_template_id, last_batch_id, created_at, updated_at
        )
        VALUES (
            :id, :store_id, :name, :unit, :quantity, :recipe_template_id, :last_batch_id, :created_at, :updated_at
        )
        ON CONFLICT (store_id, recipe_template_id) WHERE recipe_template_id IS NOT NULL DO NOTHING
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, p); err != nil {
		return fmt.Errorf("failed to create product stock: %w", err)
	}
	return nil
}

func (r *PGRepository) GetProductStock(ctx context.Context, id string) (*model.ProductStock, error) {
	var p model.ProductStock
	err := sqlx.GetContext(ctx, r.ext(ctx), &p, `SELECT * FROM product_stocks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product stock: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) FindProductStockByTemplate(ctx context.Context, storeID, templateID string) (*model.ProductStock, error) {
	var p model.ProductStock
	err := sqlx.GetContext(ctx, r.ext(ctx), &p,
		`SELECT * FROM product_stocks WHERE store_id = $1 AND recipe_template_id = $2`, storeID, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product stock: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) ListProductStock(ctx context.Context, storeID string) ([]model.ProductStock, error) {
	items := []model.ProductStock{}
	err := sqlx.SelectContext(ctx, r.ext(ctx), &items,
		`SELECT * FROM product_stocks WHERE store_id = $1 ORDER BY name ASC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product stock: %w", err)
	}
	return items, nil
}

func (r *PGRepository) ApplyProductDelta(ctx context.Context, storeID, productStockID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := sqlx.GetContext(ctx, r.ext(ctx), &after, `
        UPDATE product_stocks
        SET quantity = quantity + $3, updated_at = NOW()
        WHERE store_id = $1 AND id = $2 AND quantity + $3 >= 0
        RETURNING quantity
    `, storeID, productStockID, delta)
	if err == nil {
		return after, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust product stock: %w", err)
	}

	existing, err := r.GetProductStock(ctx, productStockID)
	if err != nil {
		return decimal.Zero, err
	}
	if existing == nil || existing.StoreID != storeID {
		return decimal.Zero, apperr.NotFound("product stock", productStockID)
	}
	return decimal.Zero, apperr.ErrInsufficientStock
}

func (r *PGRepository) SetProductLastBatch(ctx context.Context, productStockID, batchID string) error {
	_, err := r.ext(ctx).ExecContext(ctx,
		`UPDATE product_stocks SET last_batch_id = $2, updated_at = NOW() WHERE id = $1`, productStockID, batchID)
	if err != nil {
		return fmt.Errorf("failed to record last batch: %w", err)
	}
	return nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, store_id, stock_kind, stock_id, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :store_id, :stock_kind, :stock_id, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.StockKind != "" {
		conditions = append(conditions, "stock_kind = :stock_kind")
		args["stock_kind"] = f.StockKind
	}
	if f.StockID != "" {
		conditions = append(conditions, "stock_id = :stock_id")
		args["stock_id"] = f.StockID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	query, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.StockMovement{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), params...); err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	return items, count, nil
}
