package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	BackupPhase Phase = iota
	MigrateCategoriesPhase
	MigrateBlogsPhase
	ValidatePhase
)

func (p Phase) String() string {
	switch p {
	case BackupPhase:
		return "backup"
	case MigrateCategoriesPhase:
		return "migrate_categories"
	case MigrateBlogsPhase:
		return "migrate_blogs"
	case ValidatePhase:
		return "validate"
	default:
		return ""
	}
}

func backupStartedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackupPhase,
		Step:    0,
		Total:   1,
		Message: "Snapshotting source store...",
	}
}

func backupWrittenUpdate(path string, counts any) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackupPhase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Backup written: %s", path),
		Data:    counts,
	}
}

func phaseStartedUpdate(phase Phase, total int) ProgressUpdate {
	var message string
	switch phase {
	case MigrateCategoriesPhase:
		message = fmt.Sprintf("Migrating %d categories...", total)
	case MigrateBlogsPhase:
		message = fmt.Sprintf("Migrating %d blog posts...", total)
	default:
		message = fmt.Sprintf("Starting %s...", phase)
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   total,
		Message: message,
	}
}

func createdUpdate(phase Phase, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func skippedUpdate(phase Phase, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] = %s (already exists)", step, total, name),
	}
}

func failedUpdate(phase Phase, step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func validateUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidatePhase,
		Step:    step,
		Total:   total,
		Message: message,
	}
}
