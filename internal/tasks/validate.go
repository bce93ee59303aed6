package tasks

import (
	"context"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// ValidateMigration compares the source and target stores after a migration.
//
// Counts are informational. The result is invalid only when target blog posts reference a category
// id that does not exist in the target, or when a store could not be read. No store is modified
// and the outcome is always returned as data.
func (e *MigrationEngine) ValidateMigration(ctx context.Context, progress chan<- ProgressUpdate) *models.ValidationResult {
	result := &models.ValidationResult{IsValid: true, Issues: []string{}}
	logger := shared.WithLogger(e.logger, "phase", ValidatePhase.String())

	if err := e.checkStores(); err != nil {
		result.AddIssue("Validation failed: %v", err)
		return result
	}

	const total = 5
	counts := []struct {
		label  string
		count  func(context.Context, map[string]any) (int, error)
		target *int
	}{
		{"source categories", e.source.Categories.Count, &result.SourceCategories},
		{"target categories", e.target.Categories.Count, &result.TargetCategories},
		{"source blogs", e.source.Blogs.Count, &result.SourceBlogs},
		{"target blogs", e.target.Blogs.Count, &result.TargetBlogs},
	}

	for i, c := range counts {
		e.sendProgress(progress, validateUpdate(i+1, total, "Counting "+c.label+"..."))
		n, err := c.count(ctx, nil)
		if err != nil {
			result.AddIssue("Failed to count %s: %v", c.label, err)
			continue
		}
		*c.target = n
	}

	e.sendProgress(progress, validateUpdate(total, total, "Checking category references..."))

	validIDs, err := e.target.Categories.Distinct(ctx, "id", nil)
	if err != nil {
		result.AddIssue("Failed to read target category ids: %v", err)
		return result
	}

	invalid, err := e.target.Blogs.Count(ctx, map[string]any{
		models.CategoryIDNotNull: true,
		models.CategoryIDNotIn:   validIDs,
	})
	if err != nil {
		result.AddIssue("Failed to check category references: %v", err)
		return result
	}

	result.BlogsWithInvalidCategories = invalid
	if invalid > 0 {
		result.AddIssue("%d blogs have invalid category references", invalid)
	}

	logger.Info("validation finished", "valid", result.IsValid, "issues", len(result.Issues))
	return result
}
