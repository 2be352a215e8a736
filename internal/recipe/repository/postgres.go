package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/store/pgtx"
	"github.com/jmoiron/sqlx"
)

var _ recipe.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ext(ctx context.Context) sqlx.ExtContext {
	return pgtx.Executor(ctx, r.DB)
}

func (r *PGRepository) CreateTemplate(ctx context.Context, t *model.RecipeTemplate) error {
	query := `
        INSERT INTO recipe_templates (id, store_id, name, unit, has_ingredients, is_active, created_at, updated_at)
        VALUES (:id, :store_id, :name, :unit, :has_ingredients, :is_active, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, t); err != nil {
		return fmt.Errorf("failed to create recipe template: %w", err)
	}
	return nil
}

func (r *PGRepository) GetTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error) {
	return r.getTemplate(ctx, `SELECT * FROM recipe_templates WHERE id = $1`, id)
}

func (r *PGRepository) LockTemplate(ctx context.Context, id string) (*model.RecipeTemplate, error) {
	return r.getTemplate(ctx, `SELECT * FROM recipe_templates WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) getTemplate(ctx context.Context, query, id string) (*model.RecipeTemplate, error) {
	var t model.RecipeTemplate
	if err := sqlx.GetContext(ctx, r.ext(ctx), &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe template: %w", err)
	}
	return &t, nil
}

func (r *PGRepository) FindTemplates(ctx context.Context, f *dto.TemplateFilters) ([]model.RecipeTemplate, int, error) {
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.Name != "" {
		conditions = append(conditions, "LOWER(TRIM(name)) = LOWER(TRIM(:name))")
		args["name"] = f.Name
	}
	if f.Unit != "" {
		conditions = append(conditions, "LOWER(TRIM(unit)) = LOWER(TRIM(:unit))")
		args["unit"] = f.Unit
	}
	if f.HasIngredients != nil {
		conditions = append(conditions, "has_ingredients = :has_ingredients")
		args["has_ingredients"] = *f.HasIngredients
	}
	if !f.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM recipe_templates"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.ext(ctx), &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipe templates: %w", err)
	}

	query := "SELECT * FROM recipe_templates" + whereClause + " ORDER BY created_at ASC, id"
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

	items := []model.RecipeTemplate{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, r.DB.Rebind(query), params...); err != nil {
		return nil, 0, fmt.Errorf("failed to find recipe templates: %w", err)
	}
	return items, count, nil
}

func (r *PGRepository) CreateBatch(ctx context.Context, b *model.RecipeBatch) error {
	query := `
        INSERT INTO recipe_batches (
            id, template_id, batch_name, producible_quantity, is_default, is_active, created_at, updated_at
        )
        VALUES (
            :id, :template_id, :batch_name, :producible_quantity, :is_default, :is_active, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, b); err != nil {
		return fmt.Errorf("failed to create recipe batch: %w", err)
	}
	return r.insertIngredients(ctx, b.Ingredients)
}

func (r *PGRepository) insertIngredients(ctx context.Context, items []model.RecipeIngredient) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO recipe_ingredients (id, batch_id, raw_material_id, quantity_needed, unit, position)
        VALUES (:id, :batch_id, :raw_material_id, :quantity_needed, :unit, :position)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, items); err != nil {
		return fmt.Errorf("failed to insert recipe ingredients: %w", err)
	}
	return nil
}

func (r *PGRepository) GetBatch(ctx context.Context, id string) (*model.RecipeBatch, error) {
	var b model.RecipeBatch
	if err := sqlx.GetContext(ctx, r.ext(ctx), &b, `SELECT * FROM recipe_batches WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe batch: %w", err)
	}

	batches := []model.RecipeBatch{b}
	if err := r.attachIngredients(ctx, batches); err != nil {
		return nil, err
	}
	return &batches[0], nil
}

func (r *PGRepository) ListBatches(ctx context.Context, templateID string, includeInactive bool) ([]model.RecipeBatch, error) {
	query := `SELECT * FROM recipe_batches WHERE template_id = $1`
	if !includeInactive {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_at ASC, id`

	items := []model.RecipeBatch{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &items, query, templateID); err != nil {
		return nil, fmt.Errorf("failed to list recipe batches: %w", err)
	}
	if err := r.attachIngredients(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) attachIngredients(ctx context.Context, batches []model.RecipeBatch) error {
	if len(batches) == 0 {
		return nil
	}

	ids := make([]string, len(batches))
	index := make(map[string]int, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
		index[b.ID] = i
		batches[i].Ingredients = []model.RecipeIngredient{}
	}

	query, args, err := sqlx.In(`SELECT * FROM recipe_ingredients WHERE batch_id IN (?) ORDER BY batch_id, position`, ids)
	if err != nil {
		return err
	}

	var rows []model.RecipeIngredient
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &rows, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	for _, row := range rows {
		i := index[row.BatchID]
		batches[i].Ingredients = append(batches[i].Ingredients, row)
	}
	return nil
}

func (r *PGRepository) UpdateBatch(ctx context.Context, b *model.RecipeBatch) error {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), `
        UPDATE recipe_batches
        SET batch_name = :batch_name, producible_quantity = :producible_quantity, updated_at = :updated_at
        WHERE id = :id
    `, b)
	if err != nil {
		return fmt.Errorf("failed to update recipe batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("recipe batch", b.ID)
	}

	if _, err := r.ext(ctx).ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE batch_id = $1`, b.ID); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	return r.insertIngredients(ctx, b.Ingredients)
}

// SetDefaultBatch clears the flag before setting it; the partial unique index on
// (template_id) WHERE is_default rejects two defaults even transiently.
func (r *PGRepository) SetDefaultBatch(ctx context.Context, templateID, batchID string) error {
	if _, err := r.ext(ctx).ExecContext(ctx, `
        UPDATE recipe_batches SET is_default = false, updated_at = NOW()
        WHERE template_id = $1 AND is_default = true AND id <> $2
    `, templateID, batchID); err != nil {
		return fmt.Errorf("failed to clear default batch: %w", err)
	}

	res, err := r.ext(ctx).ExecContext(ctx, `
        UPDATE recipe_batches SET is_default = true, updated_at = NOW()
        WHERE template_id = $1 AND id = $2
    `, templateID, batchID)
	if err != nil {
		return fmt.Errorf("failed to set default batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("recipe batch", batchID)
	}
	return nil
}

func (r *PGRepository) SetBatchActive(ctx context.Context, batchID string, active bool) error {
	res, err := r.ext(ctx).ExecContext(ctx, `
        UPDATE recipe_batches
        SET is_active = $2, is_default = CASE WHEN $2 THEN is_default ELSE false END, updated_at = NOW()
        WHERE id = $1
    `, batchID, active)
	if err != nil {
		return fmt.Errorf("failed to update recipe batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("recipe batch", batchID)
	}
	return nil
}
