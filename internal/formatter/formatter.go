// package formatter renders migration reports and validation results as text, Markdown, CSV and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// Summary bundles everything worth reporting after a migration.
type Summary struct {
	BackupPath string                   `json:"backupPath,omitempty"`
	Report     *models.MigrationReport  `json:"report"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

func (s Summary) report() *models.MigrationReport {
	if s.Report == nil {
		return models.NewMigrationReport()
	}
	return s.Report
}

func validityString(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

// ReportToText converts a Summary to plain text format
func ReportToText(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	report := s.report()

	if s.BackupPath != "" {
		buf.WriteString(fmt.Sprintf("Backup: %s\n", s.BackupPath))
	}
	buf.WriteString(fmt.Sprintf("Categories migrated: %d\n", report.CategoriesMigrated))
	buf.WriteString(fmt.Sprintf("Blogs migrated: %d\n", report.BlogsMigrated))

	if len(report.Warnings) > 0 {
		buf.WriteString(fmt.Sprintf("\nWarnings (%d):\n", len(report.Warnings)))
		for _, w := range report.Warnings {
			buf.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}

	if len(report.Errors) > 0 {
		buf.WriteString(fmt.Sprintf("\nErrors (%d):\n", len(report.Errors)))
		for _, e := range report.Errors {
			buf.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}

	if s.Validation != nil {
		buf.WriteString("\n")
		buf.Write(ValidationToText(s.Validation))
	}

	return buf.Bytes(), nil
}

// ValidationToText converts a ValidationResult to plain text format
func ValidationToText(v *models.ValidationResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Validation: %s\n", validityString(v.IsValid)))
	buf.WriteString(fmt.Sprintf("Categories: %d source, %d target\n", v.SourceCategories, v.TargetCategories))
	buf.WriteString(fmt.Sprintf("Blogs: %d source, %d target\n", v.SourceBlogs, v.TargetBlogs))
	buf.WriteString(fmt.Sprintf("Blogs with invalid categories: %d\n", v.BlogsWithInvalidCategories))

	for _, issue := range v.Issues {
		buf.WriteString(fmt.Sprintf("  ! %s\n", issue))
	}

	return buf.Bytes()
}

// ReportToMarkdown converts a Summary to Markdown format
func ReportToMarkdown(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	report := s.report()

	buf.WriteString("# Migration Report\n\n")

	if s.BackupPath != "" {
		buf.WriteString(fmt.Sprintf("**Backup**: `%s`\n\n", s.BackupPath))
	}

	buf.WriteString("| Records | Migrated |\n|---|---|\n")
	buf.WriteString(fmt.Sprintf("| Categories | %d |\n", report.CategoriesMigrated))
	buf.WriteString(fmt.Sprintf("| Blogs | %d |\n\n", report.BlogsMigrated))

	if len(report.Warnings) > 0 {
		buf.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			buf.WriteString(fmt.Sprintf("- %s\n", w))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("## Errors\n\n")
		for _, e := range report.Errors {
			buf.WriteString(fmt.Sprintf("- %s\n", e))
		}
		buf.WriteString("\n")
	}

	if v := s.Validation; v != nil {
		buf.WriteString("## Validation\n\n")
		buf.WriteString(fmt.Sprintf("**Status**: %s\n\n", validityString(v.IsValid)))
		buf.WriteString("| Records | Source | Target |\n|---|---|---|\n")
		buf.WriteString(fmt.Sprintf("| Categories | %d | %d |\n", v.SourceCategories, v.TargetCategories))
		buf.WriteString(fmt.Sprintf("| Blogs | %d | %d |\n\n", v.SourceBlogs, v.TargetBlogs))
		for _, issue := range v.Issues {
			buf.WriteString(fmt.Sprintf("- %s\n", issue))
		}
	}

	return buf.Bytes(), nil
}

// ReportToCSV converts a MigrationReport to CSV format with columns: Kind, Message
func ReportToCSV(report *models.MigrationReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	rows := [][]string{
		{"Kind", "Message"},
		{"categories_migrated", strconv.Itoa(report.CategoriesMigrated)},
		{"blogs_migrated", strconv.Itoa(report.BlogsMigrated)},
	}
	for _, w := range report.Warnings {
		rows = append(rows, []string{"warning", w})
	}
	for _, e := range report.Errors {
		rows = append(rows, []string{"error", e})
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON generates an indented JSON representation of a Summary
func ToJSON(s Summary) ([]byte, error) {
	s.Report = s.report()
	return shared.MarshalJSON(s, true)
}

// WriteReport writes a Summary to path, choosing the format from the file extension.
//
// .md renders Markdown, .csv renders the report rows, .txt renders plain text, anything else is JSON.
// Defaults to migration-report.json.
func WriteReport(s Summary, path string) (string, error) {
	if path == "" {
		path = "migration-report.json"
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		data, err = ReportToMarkdown(s)
	case ".csv":
		data, err = ReportToCSV(s.report())
	case ".txt":
		data, err = ReportToText(s)
	default:
		data, err = ToJSON(s)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}
