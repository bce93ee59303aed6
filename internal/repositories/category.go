package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// categoryColumns lists the criteria keys accepted by [CategoryRepository].
var categoryColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"slug":      "slug",
	"is_active": "is_active",
}

const categorySelect = `
	SELECT id, name, description, slug, is_active, created_at, updated_at
	FROM categories
	WHERE deleted_at IS NULL`

// CategoryRepository implements [models.Collection] for [models.Category].
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new [CategoryRepository] with the given database connection
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category with a freshly generated id.
//
// Timestamps carried by the record are preserved; zero timestamps are set to now.
func (r *CategoryRepository) Create(ctx context.Context, category models.Category) (models.Category, error) {
	if err := category.Validate(); err != nil {
		return models.Category{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	sequence, err := NextSequence(ctx, r.db, "categories")
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	if category.UpdatedAt.IsZero() {
		category.UpdatedAt = category.CreatedAt
	}
	category.ID = shared.GenerateID()

	query := `
		INSERT INTO categories (id, sequence, name, description, slug, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		category.ID,
		sequence,
		category.Name,
		category.Description,
		category.Slug,
		category.IsActive,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to insert category: %w", err)
	}

	return category, nil
}

// FindOne returns the first category matching criteria in insertion order.
func (r *CategoryRepository) FindOne(ctx context.Context, criteria map[string]any) (models.Category, error) {
	f, err := buildFilter(categoryColumns, criteria)
	if err != nil {
		return models.Category{}, err
	}

	query := categorySelect + f.sql() + " ORDER BY sequence ASC LIMIT 1"

	category, err := r.scan(r.db.QueryRowContext(ctx, query, f.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("%w: category matching %v", shared.ErrNotFound, criteria)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to query category: %w", err)
	}

	return category, nil
}

// Find returns every category matching criteria in insertion order.
func (r *CategoryRepository) Find(ctx context.Context, criteria map[string]any) ([]models.Category, error) {
	f, err := buildFilter(categoryColumns, criteria)
	if err != nil {
		return nil, err
	}

	query := categorySelect + f.sql() + " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		category, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

// Count returns the number of categories matching criteria.
func (r *CategoryRepository) Count(ctx context.Context, criteria map[string]any) (int, error) {
	f, err := buildFilter(categoryColumns, criteria)
	if err != nil {
		return 0, err
	}

	var count int
	query := "SELECT COUNT(*) FROM categories WHERE deleted_at IS NULL" + f.sql()
	if err := r.db.QueryRowContext(ctx, query, f.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}

	return count, nil
}

// Distinct returns the distinct values of field across matching categories.
func (r *CategoryRepository) Distinct(ctx context.Context, field string, criteria map[string]any) ([]string, error) {
	column, ok := categoryColumns[field]
	if !ok || column == "is_active" {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedField, field)
	}

	f, err := buildFilter(categoryColumns, criteria)
	if err != nil {
		return nil, err
	}

	return distinct(ctx, r.db, "categories", column, f)
}

// Delete soft-deletes a category by ID
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "categories", id)
}

func (r *CategoryRepository) scan(row scanner) (models.Category, error) {
	var category models.Category

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Slug,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return models.Category{}, err
	}

	return category, nil
}
