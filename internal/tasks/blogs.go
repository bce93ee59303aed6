package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// MigrateBlogPosts copies every source blog post into the target store.
//
// Posts are matched by exact title and subtitle; a match is skipped with a warning. The category
// reference is translated through mapping, and a source id is never written to the target: a post
// whose category has no mapping entry is created without a category.
func (e *MigrationEngine) MigrateBlogPosts(ctx context.Context, mapping models.CategoryIDMapping, report *models.MigrationReport, progress chan<- ProgressUpdate) error {
	if err := e.checkStores(); err != nil {
		return err
	}
	if report == nil {
		report = models.NewMigrationReport()
	}

	logger := shared.WithLogger(e.logger, "phase", MigrateBlogsPhase.String())

	blogs, err := e.source.Blogs.Find(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to read source blogs: %w", err)
	}

	total := len(blogs)
	created := 0

	logger.Info("migrating blog posts", "total", total)
	e.sendProgress(progress, phaseStartedUpdate(MigrateBlogsPhase, total))

	for i, blog := range blogs {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := i + 1

		_, err := e.target.Blogs.FindOne(ctx, map[string]any{"title": blog.Title, "subtitle": blog.Subtitle})
		switch {
		case err == nil:
			report.Warn("Blog already exists: %s", blog.Title)
			logger.Debug("blog exists", "title", blog.Title)
			e.sendProgress(progress, skippedUpdate(MigrateBlogsPhase, step, total, blog.Title))
			continue
		case !errors.Is(err, shared.ErrNotFound):
			report.Fail("Failed to migrate blog %s: %v", blog.Title, err)
			logger.Warn("blog lookup failed", "title", blog.Title, "error", err)
			e.sendProgress(progress, failedUpdate(MigrateBlogsPhase, step, total, blog.Title, err))
			continue
		}

		record := blog
		record.ID = ""
		record.CategoryID = nil
		if blog.HasCategory() {
			if targetID, ok := mapping.Resolve(*blog.CategoryID); ok {
				record.CategoryID = &targetID
			} else {
				report.Warn("Category mapping not found for blog: %s", blog.Title)
				logger.Debug("category mapping missing", "title", blog.Title, "category", *blog.CategoryID)
			}
		}

		if err := e.waitWrite(ctx); err != nil {
			return err
		}

		if _, err := e.target.Blogs.Create(ctx, record); err != nil {
			report.Fail("Failed to migrate blog %s: %v", blog.Title, err)
			logger.Warn("blog create failed", "title", blog.Title, "error", err)
			e.sendProgress(progress, failedUpdate(MigrateBlogsPhase, step, total, blog.Title, err))
			continue
		}

		created++
		report.BlogsMigrated++
		e.sendProgress(progress, createdUpdate(MigrateBlogsPhase, step, total, blog.Title))
	}

	logger.Info("blog posts migrated", "created", created)
	return nil
}
