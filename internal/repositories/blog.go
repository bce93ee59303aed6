package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// blogColumns lists the equality criteria keys accepted by [BlogRepository].
var blogColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"subtitle":    "subtitle",
	"category_id": "category_id",
	"is_archive":  "is_archive",
}

const blogSelect = `
	SELECT id, title, subtitle, sections, tags, category_id, multi_views, unique_views, is_archive, seo, created_at, updated_at
	FROM blogs
	WHERE deleted_at IS NULL`

// BlogRepository implements [models.Collection] for [models.Blog].
//
// Sections, tags, unique views and SEO metadata are stored as JSON text.
type BlogRepository struct {
	db *sql.DB
}

// NewBlogRepository creates a new [BlogRepository] with the given database connection
func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts a blog post with a freshly generated id.
//
// The category reference is stored as given; it is never checked against the categories table.
func (r *BlogRepository) Create(ctx context.Context, blog models.Blog) (models.Blog, error) {
	if err := blog.Validate(); err != nil {
		return models.Blog{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	sections, tags, uniqueViews, err := encodeBlogLists(blog)
	if err != nil {
		return models.Blog{}, err
	}

	seo := "null"
	if len(blog.SEO) > 0 {
		if !json.Valid(blog.SEO) {
			return models.Blog{}, fmt.Errorf("%w: seo is not valid JSON", shared.ErrValidation)
		}
		seo = string(blog.SEO)
	}

	var categoryID any
	if blog.HasCategory() {
		categoryID = *blog.CategoryID
	}

	sequence, err := NextSequence(ctx, r.db, "blogs")
	if err != nil {
		return models.Blog{}, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	if blog.UpdatedAt.IsZero() {
		blog.UpdatedAt = blog.CreatedAt
	}
	blog.ID = shared.GenerateID()

	query := `
		INSERT INTO blogs (
			id, sequence, title, subtitle, sections, tags, category_id,
			multi_views, unique_views, is_archive, seo, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		blog.ID,
		sequence,
		blog.Title,
		blog.Subtitle,
		sections,
		tags,
		categoryID,
		blog.MultiViews,
		uniqueViews,
		blog.IsArchive,
		seo,
		blog.CreatedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		return models.Blog{}, fmt.Errorf("failed to insert blog: %w", err)
	}

	return blog, nil
}

// FindOne returns the first blog post matching criteria in insertion order.
func (r *BlogRepository) FindOne(ctx context.Context, criteria map[string]any) (models.Blog, error) {
	f, err := r.filter(criteria)
	if err != nil {
		return models.Blog{}, err
	}

	query := blogSelect + f.sql() + " ORDER BY sequence ASC LIMIT 1"

	blog, err := r.scan(r.db.QueryRowContext(ctx, query, f.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Blog{}, fmt.Errorf("%w: blog matching %v", shared.ErrNotFound, criteria)
	}
	if err != nil {
		return models.Blog{}, fmt.Errorf("failed to query blog: %w", err)
	}

	return blog, nil
}

// Find returns every blog post matching criteria in insertion order.
func (r *BlogRepository) Find(ctx context.Context, criteria map[string]any) ([]models.Blog, error) {
	f, err := r.filter(criteria)
	if err != nil {
		return nil, err
	}

	query := blogSelect + f.sql() + " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	blogs := []models.Blog{}
	for rows.Next() {
		blog, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return blogs, nil
}

// Count returns the number of blog posts matching criteria.
func (r *BlogRepository) Count(ctx context.Context, criteria map[string]any) (int, error) {
	f, err := r.filter(criteria)
	if err != nil {
		return 0, err
	}

	var count int
	query := "SELECT COUNT(*) FROM blogs WHERE deleted_at IS NULL" + f.sql()
	if err := r.db.QueryRowContext(ctx, query, f.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blogs: %w", err)
	}

	return count, nil
}

// Distinct returns the distinct non-null values of field across matching blog posts.
func (r *BlogRepository) Distinct(ctx context.Context, field string, criteria map[string]any) ([]string, error) {
	column, ok := blogColumns[field]
	if !ok || column == "is_archive" {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedField, field)
	}

	f, err := r.filter(criteria)
	if err != nil {
		return nil, err
	}

	return distinct(ctx, r.db, "blogs", column, f)
}

// Delete soft-deletes a blog post by ID
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "blogs", id)
}

// filter splits out the [models.CategoryIDNotNull] and [models.CategoryIDNotIn] operators before handling plain equality criteria.
func (r *BlogRepository) filter(criteria map[string]any) (*filter, error) {
	equality := make(map[string]any, len(criteria))
	for key, value := range criteria {
		if key != models.CategoryIDNotNull && key != models.CategoryIDNotIn {
			equality[key] = value
		}
	}

	f, err := buildFilter(blogColumns, equality)
	if err != nil {
		return nil, err
	}

	if v, ok := criteria[models.CategoryIDNotNull]; ok {
		notNull, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a bool", shared.ErrUnsupportedField, models.CategoryIDNotNull)
		}
		if notNull {
			f.add("category_id IS NOT NULL")
		}
	}

	if v, ok := criteria[models.CategoryIDNotIn]; ok {
		ids, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a []string", shared.ErrUnsupportedField, models.CategoryIDNotIn)
		}
		if len(ids) > 0 {
			args := make([]any, len(ids))
			for i, id := range ids {
				args[i] = id
			}
			f.add("category_id NOT IN ("+placeholders(len(ids))+")", args...)
		}
	}

	return f, nil
}

func (r *BlogRepository) scan(row scanner) (models.Blog, error) {
	var (
		blog        models.Blog
		sections    string
		tags        string
		categoryID  sql.NullString
		uniqueViews string
		seo         string
	)

	err := row.Scan(
		&blog.ID,
		&blog.Title,
		&blog.Subtitle,
		&sections,
		&tags,
		&categoryID,
		&blog.MultiViews,
		&uniqueViews,
		&blog.IsArchive,
		&seo,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	)
	if err != nil {
		return models.Blog{}, err
	}

	if err := json.Unmarshal([]byte(sections), &blog.Sections); err != nil {
		return models.Blog{}, fmt.Errorf("failed to decode sections of blog %s: %w", blog.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &blog.Tags); err != nil {
		return models.Blog{}, fmt.Errorf("failed to decode tags of blog %s: %w", blog.ID, err)
	}
	if err := json.Unmarshal([]byte(uniqueViews), &blog.UniqueViews); err != nil {
		return models.Blog{}, fmt.Errorf("failed to decode unique views of blog %s: %w", blog.ID, err)
	}
	if seo != "null" && seo != "" {
		blog.SEO = json.RawMessage(seo)
	}
	if categoryID.Valid {
		id := categoryID.String
		blog.CategoryID = &id
	}

	return blog, nil
}

// encodeBlogLists encodes the JSON list columns, storing nil lists as [].
func encodeBlogLists(blog models.Blog) (string, string, string, error) {
	sections := blog.Sections
	if sections == nil {
		sections = []json.RawMessage{}
	}
	tags := blog.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	uniqueViews := blog.UniqueViews
	if uniqueViews == nil {
		uniqueViews = []string{}
	}

	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: sections are not valid JSON: %v", shared.ErrValidation, err)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: failed to encode tags: %v", shared.ErrValidation, err)
	}
	uniqueViewsJSON, err := json.Marshal(uniqueViews)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: failed to encode unique views: %v", shared.ErrValidation, err)
	}

	return string(sectionsJSON), string(tagsJSON), string(uniqueViewsJSON), nil
}
