package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
	tu "github.com/desertthunder/blogx/internal/testing"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

type fixture struct {
	source models.Store
	target models.Store
	engine *MigrationEngine
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source: tu.NewStore(t),
		target: tu.NewStore(t),
		dir:    t.TempDir(),
	}
	f.engine = f.build(EngineOpts{})
	return f
}

// build creates an engine over the fixture stores; opts.Source and opts.Target override them when set.
func (f *fixture) build(opts EngineOpts) *MigrationEngine {
	if opts.Source.Categories == nil {
		opts.Source = f.source
	}
	if opts.Target.Categories == nil {
		opts.Target = f.target
	}
	if opts.BackupDir == "" {
		opts.BackupDir = f.dir
	}
	opts.Now = func() time.Time { return fixedNow }
	return NewMigrationEngine(opts)
}

func strPtr(s string) *string { return &s }

func blogFixture(title, subtitle string, categoryID *string) models.Blog {
	return models.Blog{
		Title:       title,
		Subtitle:    subtitle,
		Sections:    []json.RawMessage{json.RawMessage(`{"type":"text","body":"hello"}`)},
		Tags:        []models.Tag{{Label: "Go", Value: "go"}},
		CategoryID:  categoryID,
		MultiViews:  7,
		UniqueViews: []string{"10.0.0.1", "10.0.0.2"},
		SEO:         json.RawMessage(`{"title":"` + title + `"}`),
		CreatedAt:   time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC),
		UpdatedAt:   time.Date(2023, 3, 5, 5, 6, 7, 0, time.UTC),
	}
}

// seed fills the source with two categories and three posts, one without a category.
func (f *fixture) seed(t *testing.T) (models.Category, models.Category) {
	t.Helper()
	news := tu.MustCreateCategory(t, f.source, "News")
	guides := tu.MustCreateCategory(t, f.source, "Guides")
	tu.MustCreateBlog(t, f.source, blogFixture("Hello", "first post", &news.ID))
	tu.MustCreateBlog(t, f.source, blogFixture("Setup", "getting started", &guides.ID))
	tu.MustCreateBlog(t, f.source, blogFixture("Loose", "", nil))
	return news, guides
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{BackupPhase, "backup"},
		{MigrateCategoriesPhase, "migrate_categories"},
		{MigrateBlogsPhase, "migrate_blogs"},
		{ValidatePhase, "validate"},
		{Phase(99), ""},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestSendProgress(t *testing.T) {
	e := NewMigrationEngine(EngineOpts{})

	t.Run("nil channel", func(t *testing.T) {
		e.sendProgress(nil, validateUpdate(1, 1, "noop"))
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, validateUpdate(1, 2, "first"))
		e.sendProgress(ch, validateUpdate(2, 2, "second"))
		if got := <-ch; got.Message != "first" {
			t.Errorf("expected first update to be kept, got %q", got.Message)
		}
	})
}

func TestBackupFilename(t *testing.T) {
	got := BackupFilename("2024-05-06T07:08:09.123Z")
	want := "backup-2024-05-06T07-08-09-123Z.json"
	if got != want {
		t.Errorf("BackupFilename() = %q, want %q", got, want)
	}
}

func TestCreateBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots source", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		artifact, path, err := f.engine.CreateBackup(ctx, nil)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}

		if artifact.Timestamp != "2024-05-06T07:08:09.123Z" {
			t.Errorf("unexpected timestamp %q", artifact.Timestamp)
		}
		if artifact.Counts.Categories != len(artifact.Categories) || artifact.Counts.Categories != 2 {
			t.Errorf("category count %d does not match %d categories", artifact.Counts.Categories, len(artifact.Categories))
		}
		if artifact.Counts.Blogs != len(artifact.Blogs) || artifact.Counts.Blogs != 3 {
			t.Errorf("blog count %d does not match %d blogs", artifact.Counts.Blogs, len(artifact.Blogs))
		}
		if filepath.Base(path) != "backup-2024-05-06T07-08-09-123Z.json" {
			t.Errorf("unexpected backup path %q", path)
		}

		var decoded models.BackupArtifact
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("backup is not valid JSON: %v", err)
		}
		if decoded.Counts != artifact.Counts {
			t.Errorf("decoded counts %+v, want %+v", decoded.Counts, artifact.Counts)
		}

		report := models.NewMigrationReport()
		ok, err := ValidateBackup(path, report)
		if err != nil || !ok {
			t.Fatalf("ValidateBackup() = %v, %v", ok, err)
		}
		if len(report.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", report.Warnings)
		}
	})

	t.Run("empty source", func(t *testing.T) {
		f := newFixture(t)

		artifact, path, err := f.engine.CreateBackup(ctx, nil)
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		if artifact.Counts.Categories != 0 || artifact.Counts.Blogs != 0 {
			t.Errorf("expected zero counts, got %+v", artifact.Counts)
		}
		if !strings.Contains(tu.MustReadFile(t, path), `"categories": []`) {
			t.Error("expected empty categories to encode as an array")
		}
	})

	t.Run("creates backup directory", func(t *testing.T) {
		f := newFixture(t)
		dir := filepath.Join(f.dir, "nested", "backups")
		e := f.build(EngineOpts{BackupDir: dir})

		if _, _, err := e.CreateBackup(ctx, nil); err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		tu.AssertDirExists(t, dir)
		matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
		if len(matches) != 0 {
			t.Errorf("temporary files left behind: %v", matches)
		}
	})

	t.Run("source read failure", func(t *testing.T) {
		f := newFixture(t)
		blogs := tu.NewCountingCollection(f.source.Blogs)
		blogs.FailFind = true
		e := f.build(EngineOpts{Source: models.Store{Categories: f.source.Categories, Blogs: blogs}})

		if _, _, err := e.CreateBackup(ctx, nil); !errors.Is(err, tu.ErrInjected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		f := newFixture(t)
		progress := make(chan ProgressUpdate, 10)

		if _, _, err := f.engine.CreateBackup(ctx, progress); err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		close(progress)

		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		if len(updates) != 2 || updates[1].Phase != BackupPhase || updates[1].Step != 1 {
			t.Errorf("unexpected updates %+v", updates)
		}
	})
}

func TestValidateBackup(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  error
		wantOK   bool
		warnings int
	}{
		{
			name:    "valid",
			content: `{"timestamp":"2024-01-01T00:00:00.000Z","categories":[{}],"blogs":[{},{}],"counts":{"categories":1,"blogs":2}}`,
			wantOK:  true,
		},
		{
			name:    "empty lists",
			content: `{"timestamp":"2024-01-01T00:00:00.000Z","categories":[],"blogs":[],"counts":{"categories":0,"blogs":0}}`,
			wantOK:  true,
		},
		{
			name:     "count mismatch",
			content:  `{"timestamp":"2024-01-01T00:00:00.000Z","categories":[{}],"blogs":[],"counts":{"categories":2,"blogs":0}}`,
			wantOK:   true,
			warnings: 1,
		},
		{
			name:     "missing counts",
			content:  `{"timestamp":"2024-01-01T00:00:00.000Z","categories":[],"blogs":[]}`,
			wantOK:   true,
			warnings: 1,
		},
		{
			name:    "missing timestamp",
			content: `{"categories":[],"blogs":[],"counts":{"categories":0,"blogs":0}}`,
			wantErr: shared.ErrInvalidBackupStructure,
		},
		{
			name:    "empty timestamp",
			content: `{"timestamp":"","categories":[],"blogs":[]}`,
			wantErr: shared.ErrInvalidBackupStructure,
		},
		{
			name:    "null categories",
			content: `{"timestamp":"t","categories":null,"blogs":[]}`,
			wantErr: shared.ErrInvalidBackupStructure,
		},
		{
			name:    "missing blogs",
			content: `{"timestamp":"t","categories":[]}`,
			wantErr: shared.ErrInvalidBackupStructure,
		},
		{
			name:    "categories not a list",
			content: `{"timestamp":"t","categories":{"a":1},"blogs":[]}`,
			wantErr: shared.ErrBackupCorrupted,
		},
		{
			name:    "blogs not a list",
			content: `{"timestamp":"t","categories":[],"blogs":"many"}`,
			wantErr: shared.ErrBackupCorrupted,
		},
		{
			name:    "null document",
			content: `null`,
			wantErr: shared.ErrInvalidBackupStructure,
		},
	}

	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			tu.MustWriteFile(t, path, tt.content)
			report := models.NewMigrationReport()

			ok, err := ValidateBackup(path, report)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("case %d: expected %v, got %v", i, tt.wantErr, err)
				}
				if ok {
					t.Error("expected invalid result")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateBackup() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ValidateBackup() = %v, want %v", ok, tt.wantOK)
			}
			if len(report.Warnings) != tt.warnings {
				t.Errorf("expected %d warnings, got %v", tt.warnings, report.Warnings)
			}
			if tt.warnings > 0 && report.Warnings[0] != "Backup counts do not match actual data" {
				t.Errorf("unexpected warning %q", report.Warnings[0])
			}
		})
	}

	t.Run("error messages", func(t *testing.T) {
		if shared.ErrInvalidBackupStructure.Error() != "Invalid backup file structure" {
			t.Errorf("unexpected message %q", shared.ErrInvalidBackupStructure)
		}
		if shared.ErrBackupCorrupted.Error() != "Backup data is corrupted" {
			t.Errorf("unexpected message %q", shared.ErrBackupCorrupted)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ValidateBackup(filepath.Join(dir, "nope.json"), models.NewMigrationReport())
		if err == nil || errors.Is(err, shared.ErrInvalidBackupStructure) {
			t.Errorf("expected I/O error, got %v", err)
		}
	})

	t.Run("not JSON", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		tu.MustWriteFile(t, path, "not json")
		_, err := ValidateBackup(path, models.NewMigrationReport())
		if err == nil || errors.Is(err, shared.ErrBackupCorrupted) {
			t.Errorf("expected parse error, got %v", err)
		}
	})
}

func TestMigrateCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and maps", func(t *testing.T) {
		f := newFixture(t)
		news, guides := f.seed(t)
		report := models.NewMigrationReport()

		mapping, err := f.engine.MigrateCategories(ctx, report, nil)
		if err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if report.CategoriesMigrated != 2 {
			t.Errorf("expected 2 categories migrated, got %d", report.CategoriesMigrated)
		}
		if len(mapping) != 2 {
			t.Fatalf("expected 2 mapping entries, got %v", mapping)
		}

		for _, src := range []models.Category{news, guides} {
			targetID, ok := mapping.Resolve(src.ID)
			if !ok {
				t.Fatalf("no mapping for %s", src.Name)
			}
			if targetID == src.ID {
				t.Errorf("target id for %s should be store-assigned", src.Name)
			}
			got, err := f.target.Categories.FindOne(ctx, map[string]any{"id": targetID})
			if err != nil {
				t.Fatalf("target category %s: %v", src.Name, err)
			}
			if got.Name != src.Name || got.Slug != src.Slug || got.IsActive != src.IsActive {
				t.Errorf("fields not preserved: got %+v, want %+v", got, src)
			}
			if !got.CreatedAt.Equal(src.CreatedAt) {
				t.Errorf("createdAt not preserved: got %v, want %v", got.CreatedAt, src.CreatedAt)
			}
		}
	})

	t.Run("rerun creates nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		first, err := f.engine.MigrateCategories(ctx, models.NewMigrationReport(), nil)
		if err != nil {
			t.Fatalf("first run: %v", err)
		}

		counting := tu.NewCountingCollection(f.target.Categories)
		e := f.build(EngineOpts{Target: models.Store{Categories: counting, Blogs: f.target.Blogs}})
		report := models.NewMigrationReport()

		second, err := e.MigrateCategories(ctx, report, nil)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if counting.CreateCount() != 0 {
			t.Errorf("expected no creates on rerun, got %d", counting.CreateCount())
		}
		if report.CategoriesMigrated != 0 {
			t.Errorf("expected 0 migrated, got %d", report.CategoriesMigrated)
		}
		want := []string{"Category already exists: News", "Category already exists: Guides"}
		if strings.Join(report.Warnings, "|") != strings.Join(want, "|") {
			t.Errorf("warnings = %v, want %v", report.Warnings, want)
		}
		for srcID, targetID := range first {
			if second[srcID] != targetID {
				t.Errorf("rerun mapped %s to %s, want existing %s", srcID, second[srcID], targetID)
			}
		}
		if n, _ := f.target.Categories.Count(ctx, nil); n != 2 {
			t.Errorf("expected 2 target categories, got %d", n)
		}
	})

	t.Run("per-record failure continues", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		counting := tu.NewCountingCollection(f.target.Categories)
		counting.FailOn = func(c models.Category) error {
			if c.Name == "News" {
				return errors.New("disk full")
			}
			return nil
		}
		e := f.build(EngineOpts{Target: models.Store{Categories: counting, Blogs: f.target.Blogs}})
		report := models.NewMigrationReport()

		mapping, err := e.MigrateCategories(ctx, report, nil)
		if err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if report.CategoriesMigrated != 1 || len(mapping) != 1 {
			t.Errorf("expected 1 category migrated, got %d (mapping %v)", report.CategoriesMigrated, mapping)
		}
		if len(report.Errors) != 1 || report.Errors[0] != "Failed to migrate category News: disk full" {
			t.Errorf("unexpected errors %v", report.Errors)
		}
	})

	t.Run("lookup failure is recorded", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		counting := tu.NewCountingCollection(f.target.Categories)
		counting.FailFirst = 1
		e := f.build(EngineOpts{Target: models.Store{Categories: counting, Blogs: f.target.Blogs}})
		report := models.NewMigrationReport()

		if _, err := e.MigrateCategories(ctx, report, nil); err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Failed to migrate category News") {
			t.Errorf("unexpected errors %v", report.Errors)
		}
		if report.CategoriesMigrated != 1 {
			t.Errorf("expected remaining category migrated, got %d", report.CategoriesMigrated)
		}
	})

	t.Run("source read failure aborts", func(t *testing.T) {
		f := newFixture(t)
		counting := tu.NewCountingCollection(f.source.Categories)
		counting.FailFind = true
		e := f.build(EngineOpts{Source: models.Store{Categories: counting, Blogs: f.source.Blogs}})

		if _, err := e.MigrateCategories(ctx, models.NewMigrationReport(), nil); !errors.Is(err, tu.ErrInjected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.engine.MigrateCategories(cctx, models.NewMigrationReport(), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("throttled writes", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		e := f.build(EngineOpts{WriteRate: 1000})
		report := models.NewMigrationReport()

		if _, err := e.MigrateCategories(ctx, report, nil); err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if report.CategoriesMigrated != 2 {
			t.Errorf("expected 2 categories migrated, got %d", report.CategoriesMigrated)
		}
	})

	t.Run("nil stores", func(t *testing.T) {
		e := NewMigrationEngine(EngineOpts{})
		if _, err := e.MigrateCategories(ctx, nil, nil); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

func TestMigrateBlogPosts(t *testing.T) {
	ctx := context.Background()

	migrate := func(t *testing.T, f *fixture) (models.CategoryIDMapping, *models.MigrationReport) {
		t.Helper()
		report := models.NewMigrationReport()
		mapping, err := f.engine.MigrateCategories(ctx, report, nil)
		if err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if err := f.engine.MigrateBlogPosts(ctx, mapping, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		return mapping, report
	}

	t.Run("remaps category references", func(t *testing.T) {
		f := newFixture(t)
		news, _ := f.seed(t)

		mapping, report := migrate(t, f)
		if report.BlogsMigrated != 3 {
			t.Errorf("expected 3 blogs migrated, got %d", report.BlogsMigrated)
		}

		got, err := f.target.Blogs.FindOne(ctx, map[string]any{"title": "Hello", "subtitle": "first post"})
		if err != nil {
			t.Fatalf("migrated blog not found: %v", err)
		}
		if got.CategoryID == nil || *got.CategoryID != mapping[news.ID] {
			t.Errorf("categoryId = %v, want %s", got.CategoryID, mapping[news.ID])
		}
		if *got.CategoryID == news.ID {
			t.Error("source category id leaked into target")
		}

		want := blogFixture("Hello", "first post", nil)
		if string(got.Sections[0]) != string(want.Sections[0]) || string(got.SEO) != string(want.SEO) {
			t.Errorf("opaque content changed: sections=%s seo=%s", got.Sections[0], got.SEO)
		}
		if len(got.Tags) != 1 || got.Tags[0] != want.Tags[0] {
			t.Errorf("tags = %+v, want %+v", got.Tags, want.Tags)
		}
		if got.MultiViews != 7 || len(got.UniqueViews) != 2 {
			t.Errorf("view data not preserved: %d %v", got.MultiViews, got.UniqueViews)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("createdAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}

		loose, err := f.target.Blogs.FindOne(ctx, map[string]any{"title": "Loose"})
		if err != nil {
			t.Fatalf("uncategorized blog not found: %v", err)
		}
		if loose.CategoryID != nil {
			t.Errorf("expected nil category, got %v", *loose.CategoryID)
		}
	})

	t.Run("missing mapping entry nulls the category", func(t *testing.T) {
		f := newFixture(t)
		tu.MustCreateBlog(t, f.source, blogFixture("Orphan", "", strPtr("ghost-category")))
		report := models.NewMigrationReport()

		if err := f.engine.MigrateBlogPosts(ctx, models.CategoryIDMapping{}, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		got, err := f.target.Blogs.FindOne(ctx, map[string]any{"title": "Orphan"})
		if err != nil {
			t.Fatalf("blog not found: %v", err)
		}
		if got.CategoryID != nil {
			t.Errorf("expected nil category, got %q", *got.CategoryID)
		}
		if len(report.Warnings) != 1 || report.Warnings[0] != "Category mapping not found for blog: Orphan" {
			t.Errorf("unexpected warnings %v", report.Warnings)
		}
	})

	t.Run("rerun is idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		mapping, _ := migrate(t, f)

		counting := tu.NewCountingCollection(f.target.Blogs)
		e := f.build(EngineOpts{Target: models.Store{Categories: f.target.Categories, Blogs: counting}})
		report := models.NewMigrationReport()

		if err := e.MigrateBlogPosts(ctx, mapping, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		if report.BlogsMigrated != 0 {
			t.Errorf("expected 0 blogs migrated, got %d", report.BlogsMigrated)
		}
		if counting.CreateCount() != 0 {
			t.Errorf("expected no creates, got %d", counting.CreateCount())
		}
		want := []string{"Blog already exists: Hello", "Blog already exists: Setup", "Blog already exists: Loose"}
		if strings.Join(report.Warnings, "|") != strings.Join(want, "|") {
			t.Errorf("warnings = %v, want %v", report.Warnings, want)
		}
		if n, _ := f.target.Blogs.Count(ctx, nil); n != 3 {
			t.Errorf("expected 3 target blogs, got %d", n)
		}
	})

	t.Run("dedup identity is exact", func(t *testing.T) {
		f := newFixture(t)
		tu.MustCreateBlog(t, f.target, blogFixture("Hello", "first post", nil))
		tu.MustCreateBlog(t, f.source, blogFixture("Hello", "first post", nil))
		tu.MustCreateBlog(t, f.source, blogFixture("Hello", "second post", nil))
		tu.MustCreateBlog(t, f.source, blogFixture("hello", "first post", nil))
		tu.MustCreateBlog(t, f.source, blogFixture("Hello ", "first post", nil))
		report := models.NewMigrationReport()

		if err := f.engine.MigrateBlogPosts(ctx, nil, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		if report.BlogsMigrated != 3 {
			t.Errorf("expected 3 blogs migrated, got %d", report.BlogsMigrated)
		}
		if len(report.Warnings) != 1 || report.Warnings[0] != "Blog already exists: Hello" {
			t.Errorf("unexpected warnings %v", report.Warnings)
		}
	})

	t.Run("per-record failure continues", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		counting := tu.NewCountingCollection(f.target.Blogs)
		counting.FailOn = func(b models.Blog) error {
			if b.Title == "Setup" {
				return errors.New("constraint violated")
			}
			return nil
		}
		e := f.build(EngineOpts{Target: models.Store{Categories: f.target.Categories, Blogs: counting}})
		report := models.NewMigrationReport()

		mapping, err := e.MigrateCategories(ctx, report, nil)
		if err != nil {
			t.Fatalf("MigrateCategories() error = %v", err)
		}
		if err := e.MigrateBlogPosts(ctx, mapping, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		if report.BlogsMigrated != 2 {
			t.Errorf("expected 2 blogs migrated, got %d", report.BlogsMigrated)
		}
		if len(report.Errors) != 1 || report.Errors[0] != "Failed to migrate blog Setup: constraint violated" {
			t.Errorf("unexpected errors %v", report.Errors)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		progress := make(chan ProgressUpdate, 16)

		if err := f.engine.MigrateBlogPosts(ctx, nil, models.NewMigrationReport(), progress); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}
		close(progress)

		var last ProgressUpdate
		count := 0
		for u := range progress {
			if u.Phase != MigrateBlogsPhase {
				t.Errorf("unexpected phase %v", u.Phase)
			}
			last = u
			count++
		}
		if count != 4 || last.Step != 3 || last.Total != 3 {
			t.Errorf("got %d updates, last %+v", count, last)
		}
	})

	t.Run("source read failure aborts", func(t *testing.T) {
		f := newFixture(t)
		counting := tu.NewCountingCollection(f.source.Blogs)
		counting.FailFind = true
		e := f.build(EngineOpts{Source: models.Store{Categories: f.source.Categories, Blogs: counting}})

		if err := e.MigrateBlogPosts(ctx, nil, models.NewMigrationReport(), nil); !errors.Is(err, tu.ErrInjected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})
}

func TestValidateMigration(t *testing.T) {
	ctx := context.Background()

	t.Run("clean migration", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		report := models.NewMigrationReport()
		mapping, _ := f.engine.MigrateCategories(ctx, report, nil)
		if err := f.engine.MigrateBlogPosts(ctx, mapping, report, nil); err != nil {
			t.Fatalf("MigrateBlogPosts() error = %v", err)
		}

		result := f.engine.ValidateMigration(ctx, nil)
		if !result.IsValid || len(result.Issues) != 0 {
			t.Errorf("expected valid result, got %+v", result)
		}
		if result.SourceCategories != 2 || result.TargetCategories != 2 || result.SourceBlogs != 3 || result.TargetBlogs != 3 {
			t.Errorf("unexpected counts %+v", result)
		}
	})

	t.Run("count differences alone stay valid", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		tu.MustCreateCategory(t, f.target, "Extra")

		result := f.engine.ValidateMigration(ctx, nil)
		if !result.IsValid {
			t.Errorf("expected valid result, got %+v", result)
		}
		if result.SourceBlogs != 3 || result.TargetBlogs != 0 {
			t.Errorf("unexpected counts %+v", result)
		}
	})

	t.Run("dangling references", func(t *testing.T) {
		f := newFixture(t)
		kept := tu.MustCreateCategory(t, f.target, "Kept")
		tu.MustCreateBlog(t, f.target, blogFixture("Good", "", &kept.ID))
		tu.MustCreateBlog(t, f.target, blogFixture("Bad", "", strPtr("deleted-category")))
		tu.MustCreateBlog(t, f.target, blogFixture("Worse", "", strPtr("other-deleted")))
		tu.MustCreateBlog(t, f.target, blogFixture("None", "", nil))

		result := f.engine.ValidateMigration(ctx, nil)
		if result.IsValid {
			t.Error("expected invalid result")
		}
		if result.BlogsWithInvalidCategories != 2 {
			t.Errorf("expected 2 invalid blogs, got %d", result.BlogsWithInvalidCategories)
		}
		if len(result.Issues) != 1 || result.Issues[0] != "2 blogs have invalid category references" {
			t.Errorf("unexpected issues %v", result.Issues)
		}
	})

	t.Run("no target categories", func(t *testing.T) {
		f := newFixture(t)
		tu.MustCreateBlog(t, f.target, blogFixture("Bad", "", strPtr("missing")))

		result := f.engine.ValidateMigration(ctx, nil)
		if result.BlogsWithInvalidCategories != 1 || result.IsValid {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("read failure becomes an issue", func(t *testing.T) {
		f := newFixture(t)
		counting := tu.NewCountingCollection(f.target.Blogs)
		counting.FailCount = true
		e := f.build(EngineOpts{Target: models.Store{Categories: f.target.Categories, Blogs: counting}})

		result := e.ValidateMigration(ctx, nil)
		if result.IsValid {
			t.Error("expected invalid result")
		}
		if len(result.Issues) != 2 {
			t.Errorf("expected count and reference issues, got %v", result.Issues)
		}
	})

	t.Run("does not modify stores", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		tu.MustCreateBlog(t, f.target, blogFixture("Bad", "", strPtr("missing")))

		f.engine.ValidateMigration(ctx, nil)
		result := f.engine.ValidateMigration(ctx, nil)
		if result.TargetBlogs != 1 || result.SourceBlogs != 3 {
			t.Errorf("stores changed: %+v", result)
		}
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		runs := &tu.MockRunRecorder{}
		e := f.build(EngineOpts{Runs: runs})

		result, err := e.Run(ctx, RunOpts{}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		tu.AssertFileExists(t, result.BackupPath)
		if result.Report.CategoriesMigrated != 2 || result.Report.BlogsMigrated != 3 {
			t.Errorf("unexpected report %+v", result.Report)
		}
		if !result.Validation.IsValid {
			t.Errorf("expected valid migration, got %v", result.Validation.Issues)
		}
		if result.RunID == "" || len(runs.Finished) != 1 || !runs.Finished[0].Completed() {
			t.Errorf("run not recorded: id=%q finished=%d", result.RunID, len(runs.Finished))
		}
		if runs.Finished[0].BackupPath != result.BackupPath {
			t.Errorf("recorded backup path %q, want %q", runs.Finished[0].BackupPath, result.BackupPath)
		}
	})

	t.Run("second run migrates nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		if _, err := f.engine.Run(ctx, RunOpts{SkipBackup: true}, nil); err != nil {
			t.Fatalf("first Run() error = %v", err)
		}

		result, err := f.engine.Run(ctx, RunOpts{SkipBackup: true}, nil)
		if err != nil {
			t.Fatalf("second Run() error = %v", err)
		}
		if result.Report.CategoriesMigrated != 0 || result.Report.BlogsMigrated != 0 {
			t.Errorf("expected nothing migrated, got %+v", result.Report)
		}
		if len(result.Report.Warnings) != 5 {
			t.Errorf("expected one warning per record, got %v", result.Report.Warnings)
		}
		if result.BackupPath != "" {
			t.Errorf("expected no backup, got %q", result.BackupPath)
		}
	})

	t.Run("recorder failure does not abort", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		e := f.build(EngineOpts{Runs: &tu.MockRunRecorder{StartErr: errors.New("locked")}})

		result, err := e.Run(ctx, RunOpts{SkipBackup: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.RunID != "" || result.Report.BlogsMigrated != 3 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("run repository", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)
		runs := tu.NewRunRepository(t)
		e := f.build(EngineOpts{Runs: runs})

		result, err := e.Run(ctx, RunOpts{SkipBackup: true}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		stored, err := runs.Get(ctx, result.RunID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !stored.Completed() || stored.Report.BlogsMigrated != 3 {
			t.Errorf("unexpected stored run %+v", stored)
		}
	})

	t.Run("unavailable store", func(t *testing.T) {
		e := NewMigrationEngine(EngineOpts{})
		if _, err := e.Run(ctx, RunOpts{}, nil); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}
