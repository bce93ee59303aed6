// package models defines the data model for the blog migration engine
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is a blog category as stored in either store.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the category's required fields.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	return nil
}

// Tag is a label/value pair attached to a blog post.
type Tag struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Blog is a blog post as stored in either store.
//
// Sections and SEO are opaque to the engine and copied byte for byte.
// CategoryID is nil when the post has no category.
type Blog struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	Sections    []json.RawMessage `json:"sections"`
	Tags        []Tag             `json:"tags"`
	CategoryID  *string           `json:"categoryId"`
	MultiViews  int               `json:"multiViews"`
	UniqueViews []string          `json:"uniqueViews"`
	IsArchive   bool              `json:"isArchive"`
	SEO         json.RawMessage   `json:"seo"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Validate checks the blog's required fields.
func (b Blog) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("blog title is required")
	}
	if b.MultiViews < 0 {
		return fmt.Errorf("blog multiViews must be non-negative, got %d", b.MultiViews)
	}
	return nil
}

// HasCategory reports whether the post references a category.
func (b Blog) HasCategory() bool {
	return b.CategoryID != nil && *b.CategoryID != ""
}

// Collection defines the persistence primitives the engine requires from a store.
//
// Criteria are equality matches keyed by field name; implementations document any extra keys.
type Collection[T any] interface {
	Find(ctx context.Context, criteria map[string]any) ([]T, error)                        // Find returns every record matching criteria
	FindOne(ctx context.Context, criteria map[string]any) (T, error)                       // FindOne returns the first match or an error wrapping shared.ErrNotFound
	Count(ctx context.Context, criteria map[string]any) (int, error)                       // Count returns the number of matching records
	Create(ctx context.Context, record T) (T, error)                                       // Create inserts record and returns it with its store-assigned id
	Distinct(ctx context.Context, field string, criteria map[string]any) ([]string, error) // Distinct returns the distinct non-null values of field
}

// Criteria keys every blog [Collection] must understand beyond plain equality.
const (
	CategoryIDNotNull = "category_id_not_null" // bool: only posts that reference a category
	CategoryIDNotIn   = "category_id_nin"      // []string: category reference outside the given ids
)

// Store groups the two collections a migration reads from or writes to.
type Store struct {
	Categories Collection[Category]
	Blogs      Collection[Blog]
}
