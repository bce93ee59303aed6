package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// MigrateCategories copies every source category into the target store and returns the id mapping.
//
// Categories are matched by name. A category already present in the target is not created again;
// its existing id is mapped instead and a warning is added to report. A failed lookup or create is
// recorded as an error and the remaining categories are still processed.
func (e *MigrationEngine) MigrateCategories(ctx context.Context, report *models.MigrationReport, progress chan<- ProgressUpdate) (models.CategoryIDMapping, error) {
	if err := e.checkStores(); err != nil {
		return nil, err
	}
	if report == nil {
		report = models.NewMigrationReport()
	}

	logger := shared.WithLogger(e.logger, "phase", MigrateCategoriesPhase.String())

	categories, err := e.source.Categories.Find(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read source categories: %w", err)
	}

	total := len(categories)
	mapping := make(models.CategoryIDMapping, total)

	logger.Info("migrating categories", "total", total)
	e.sendProgress(progress, phaseStartedUpdate(MigrateCategoriesPhase, total))

	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			return mapping, err
		}
		step := i + 1

		existing, err := e.target.Categories.FindOne(ctx, map[string]any{"name": category.Name})
		switch {
		case err == nil:
			mapping[category.ID] = existing.ID
			report.Warn("Category already exists: %s", category.Name)
			logger.Debug("category exists", "name", category.Name, "id", existing.ID)
			e.sendProgress(progress, skippedUpdate(MigrateCategoriesPhase, step, total, category.Name))
			continue
		case !errors.Is(err, shared.ErrNotFound):
			report.Fail("Failed to migrate category %s: %v", category.Name, err)
			logger.Warn("category lookup failed", "name", category.Name, "error", err)
			e.sendProgress(progress, failedUpdate(MigrateCategoriesPhase, step, total, category.Name, err))
			continue
		}

		if err := e.waitWrite(ctx); err != nil {
			return mapping, err
		}

		created, err := e.target.Categories.Create(ctx, models.Category{
			Name:        category.Name,
			Description: category.Description,
			Slug:        category.Slug,
			IsActive:    category.IsActive,
			CreatedAt:   category.CreatedAt,
			UpdatedAt:   category.UpdatedAt,
		})
		if err != nil {
			report.Fail("Failed to migrate category %s: %v", category.Name, err)
			logger.Warn("category create failed", "name", category.Name, "error", err)
			e.sendProgress(progress, failedUpdate(MigrateCategoriesPhase, step, total, category.Name, err))
			continue
		}

		mapping[category.ID] = created.ID
		report.CategoriesMigrated++
		e.sendProgress(progress, createdUpdate(MigrateCategoriesPhase, step, total, category.Name))
	}

	logger.Info("categories migrated", "created", report.CategoriesMigrated, "mapped", len(mapping))
	return mapping, nil
}
