package models

import (
	"fmt"
	"time"
)

// CategoryIDMapping translates source-store category ids into target-store category ids.
//
// It is built once by the category phase and read by the blog phase.
type CategoryIDMapping map[string]string

// Resolve returns the target id for sourceID and whether a mapping exists.
func (m CategoryIDMapping) Resolve(sourceID string) (string, bool) {
	targetID, ok := m[sourceID]
	return targetID, ok
}

// MigrationReport accumulates counts, warnings and errors for a single migration run.
type MigrationReport struct {
	CategoriesMigrated int      `json:"categoriesMigrated"`
	BlogsMigrated      int      `json:"blogsMigrated"`
	Warnings           []string `json:"warnings"`
	Errors             []string `json:"errors"`
}

// NewMigrationReport returns an empty report with non-nil slices so it encodes as [] rather than null.
func NewMigrationReport() *MigrationReport {
	return &MigrationReport{Warnings: []string{}, Errors: []string{}}
}

// Warn appends a formatted warning.
func (r *MigrationReport) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fail appends a formatted per-record error.
func (r *MigrationReport) Fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any record failed.
func (r *MigrationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Merge folds other into r, preserving the order of warnings and errors.
func (r *MigrationReport) Merge(other *MigrationReport) *MigrationReport {
	if other == nil {
		return r
	}
	r.CategoriesMigrated += other.CategoriesMigrated
	r.BlogsMigrated += other.BlogsMigrated
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Errors = append(r.Errors, other.Errors...)
	return r
}

// BackupCounts records the number of records captured at snapshot time.
type BackupCounts struct {
	Categories int `json:"categories"`
	Blogs      int `json:"blogs"`
}

// BackupArtifact is a full snapshot of the source store.
type BackupArtifact struct {
	Timestamp  string       `json:"timestamp"`
	Categories []Category   `json:"categories"`
	Blogs      []Blog       `json:"blogs"`
	Counts     BackupCounts `json:"counts"`
}

// ValidationResult compares source and target after a migration.
//
// Counts are informational; only BlogsWithInvalidCategories affects IsValid.
type ValidationResult struct {
	SourceCategories           int      `json:"sourceCategories"`
	TargetCategories           int      `json:"targetCategories"`
	SourceBlogs                int      `json:"sourceBlogs"`
	TargetBlogs                int      `json:"targetBlogs"`
	BlogsWithInvalidCategories int      `json:"blogsWithInvalidCategories"`
	IsValid                    bool     `json:"isValid"`
	Issues                     []string `json:"issues"`
}

// AddIssue marks the result invalid and records why.
func (v *ValidationResult) AddIssue(format string, args ...any) {
	v.IsValid = false
	v.Issues = append(v.Issues, fmt.Sprintf(format, args...))
}

// MigrationRun is the audit record of one pipeline run, stored in the target store.
type MigrationRun struct {
	ID          string           `json:"id"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	BackupPath  string           `json:"backupPath,omitempty"`
	Report      *MigrationReport `json:"report"`
}

// Completed reports whether the run reached the end of the pipeline.
func (r MigrationRun) Completed() bool {
	return r.CompletedAt != nil
}
