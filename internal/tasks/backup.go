package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// TimestampFormat is the ISO-8601 layout used for backup timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// BackupFilename returns the artifact filename for timestamp.
//
// Colons and dots are replaced so the name is portable across filesystems.
func BackupFilename(timestamp string) string {
	return "backup-" + strings.NewReplacer(":", "-", ".", "-").Replace(timestamp) + ".json"
}

// CreateBackup snapshots every source category and blog post into a JSON file under the backup directory.
//
// Counts are the lengths of the captured lists. The file is written to a temporary name and renamed
// so a partial artifact is never left at the final path.
func (e *MigrationEngine) CreateBackup(ctx context.Context, progress chan<- ProgressUpdate) (*models.BackupArtifact, string, error) {
	if e.source.Categories == nil || e.source.Blogs == nil {
		return nil, "", fmt.Errorf("%w: source store not initialized", shared.ErrStoreUnavailable)
	}

	logger := shared.WithLogger(e.logger, "phase", BackupPhase.String())
	e.sendProgress(progress, backupStartedUpdate())

	categories, err := e.source.Categories.Find(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source categories: %w", err)
	}
	blogs, err := e.source.Blogs.Find(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source blogs: %w", err)
	}

	if categories == nil {
		categories = []models.Category{}
	}
	if blogs == nil {
		blogs = []models.Blog{}
	}

	artifact := &models.BackupArtifact{
		Timestamp:  e.now().UTC().Format(TimestampFormat),
		Categories: categories,
		Blogs:      blogs,
		Counts: models.BackupCounts{
			Categories: len(categories),
			Blogs:      len(blogs),
		},
	}

	path, err := WriteBackup(e.backupDir, artifact)
	if err != nil {
		return nil, "", err
	}

	logger.Info("backup written", "path", path, "categories", artifact.Counts.Categories, "blogs", artifact.Counts.Blogs)
	e.sendProgress(progress, backupWrittenUpdate(path, artifact.Counts))
	return artifact, path, nil
}

// WriteBackup encodes artifact as indented JSON and writes it atomically into dir.
func WriteBackup(dir string, artifact *models.BackupArtifact) (string, error) {
	data, err := shared.MarshalJSON(artifact, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, BackupFilename(artifact.Timestamp))

	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to sync backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close backup file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move backup into place: %w", err)
	}

	return path, nil
}

// ValidateBackup checks that the file at path is a well-formed backup artifact.
//
// A missing or empty timestamp, categories or blogs field fails with [shared.ErrInvalidBackupStructure].
// Categories or blogs that are not lists fail with [shared.ErrBackupCorrupted]. Counts that disagree
// with the list lengths only add a warning to report; the backup is still considered valid.
func ValidateBackup(path string, report *models.MigrationReport) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read backup file: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, fmt.Errorf("failed to parse backup file: %w", err)
	}

	for _, key := range []string{"timestamp", "categories", "blogs"} {
		if isFalsy(fields[key]) {
			return false, shared.ErrInvalidBackupStructure
		}
	}

	var categories, blogs []json.RawMessage
	if !isArray(fields["categories"]) || json.Unmarshal(fields["categories"], &categories) != nil {
		return false, shared.ErrBackupCorrupted
	}
	if !isArray(fields["blogs"]) || json.Unmarshal(fields["blogs"], &blogs) != nil {
		return false, shared.ErrBackupCorrupted
	}

	if !countsMatch(fields["counts"], len(categories), len(blogs)) && report != nil {
		report.Warn("Backup counts do not match actual data")
	}

	return true, nil
}

// isFalsy reports whether raw is absent, null, false, zero or an empty string.
func isFalsy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case float64:
		return val == 0
	case string:
		return val == ""
	default:
		return false
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// countsMatch compares the recorded counts against the list lengths.
// A missing or malformed counts object never matches.
func countsMatch(raw json.RawMessage, categories, blogs int) bool {
	var counts struct {
		Categories *float64 `json:"categories"`
		Blogs      *float64 `json:"blogs"`
	}
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &counts) != nil {
		return false
	}
	if counts.Categories == nil || counts.Blogs == nil {
		return false
	}
	return *counts.Categories == float64(categories) && *counts.Blogs == float64(blogs)
}
