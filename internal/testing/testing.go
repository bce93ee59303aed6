// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/repositories"
	"github.com/desertthunder/blogx/internal/shared"
)

// ErrInjected is returned by collections configured to fail.
var ErrInjected = errors.New("injected failure")

// NewStore opens a migrated in-memory sqlite database and returns its collections.
func NewStore(t *testing.T) models.Store {
	t.Helper()
	db, err := shared.OpenStore(":memory:", shared.DatabaseConfig{})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewStore(db)
}

// NewRunRepository opens a migrated in-memory sqlite database and returns its run history.
func NewRunRepository(t *testing.T) *repositories.RunRepository {
	t.Helper()
	db, err := shared.OpenStore(":memory:", shared.DatabaseConfig{})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewRunRepository(db)
}

// MustCreateCategory inserts a category or fails the test.
func MustCreateCategory(t *testing.T, store models.Store, name string) models.Category {
	t.Helper()
	category, err := store.Categories.Create(context.Background(), models.Category{
		Name:      name,
		Slug:      name,
		IsActive:  true,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to create category %q: %v", name, err)
	}
	return category
}

// MustCreateBlog inserts a blog post or fails the test.
func MustCreateBlog(t *testing.T, store models.Store, blog models.Blog) models.Blog {
	t.Helper()
	created, err := store.Blogs.Create(context.Background(), blog)
	if err != nil {
		t.Fatalf("Failed to create blog %q: %v", blog.Title, err)
	}
	return created
}

// CountingCollection wraps a [models.Collection] and counts calls, optionally failing selected operations.
type CountingCollection[T any] struct {
	models.Collection[T]

	mu        sync.Mutex
	Creates   int
	Lookups   int
	FailFind  bool
	FailCount bool
	FailFirst int           // Fail this many lookups or creates before delegating
	FailOn    func(T) error // Called before each create; a non-nil error is returned instead
}

// NewCountingCollection wraps inner.
func NewCountingCollection[T any](inner models.Collection[T]) *CountingCollection[T] {
	return &CountingCollection[T]{Collection: inner}
}

func (c *CountingCollection[T]) failNext() bool {
	if c.FailFirst > 0 {
		c.FailFirst--
		return true
	}
	return false
}

func (c *CountingCollection[T]) Find(ctx context.Context, criteria map[string]any) ([]T, error) {
	if c.FailFind {
		return nil, ErrInjected
	}
	return c.Collection.Find(ctx, criteria)
}

func (c *CountingCollection[T]) FindOne(ctx context.Context, criteria map[string]any) (T, error) {
	c.mu.Lock()
	c.Lookups++
	fail := c.failNext()
	c.mu.Unlock()
	if fail {
		var zero T
		return zero, ErrInjected
	}
	return c.Collection.FindOne(ctx, criteria)
}

func (c *CountingCollection[T]) Count(ctx context.Context, criteria map[string]any) (int, error) {
	if c.FailCount {
		return 0, ErrInjected
	}
	return c.Collection.Count(ctx, criteria)
}

func (c *CountingCollection[T]) Create(ctx context.Context, record T) (T, error) {
	c.mu.Lock()
	c.Creates++
	fail := c.failNext()
	c.mu.Unlock()
	if fail {
		var zero T
		return zero, ErrInjected
	}
	if c.FailOn != nil {
		if err := c.FailOn(record); err != nil {
			var zero T
			return zero, err
		}
	}
	return c.Collection.Create(ctx, record)
}

// CreateCount returns the number of Create calls seen.
func (c *CountingCollection[T]) CreateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Creates
}

// MockRunRecorder records runs in memory.
type MockRunRecorder struct {
	Started  []*models.MigrationRun
	Finished []*models.MigrationRun
	StartErr error
}

func (m *MockRunRecorder) Start(ctx context.Context, run *models.MigrationRun) error {
	if m.StartErr != nil {
		return m.StartErr
	}
	run.ID = shared.GenerateID()
	m.Started = append(m.Started, run)
	return nil
}

func (m *MockRunRecorder) Finish(ctx context.Context, run *models.MigrationRun) error {
	now := time.Now().UTC()
	run.CompletedAt = &now
	m.Finished = append(m.Finished, run)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
