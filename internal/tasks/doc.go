// Package tasks implements the blog migration engine: backup, category and blog migration, and validation.
//
// # Phases
//
// [MigrationEngine] exposes each phase as an independently callable, idempotent operation:
//
//  1. [MigrationEngine.CreateBackup] : Snapshot the source store to a timestamped JSON file
//     - [ValidateBackup] checks a written artifact for structure, types and count drift
//
//  2. [MigrationEngine.MigrateCategories] : Copy categories into the target store
//     - Dedup by name; existing target categories are reused
//     - Returns the [models.CategoryIDMapping] consumed by the next phase
//
//  3. [MigrationEngine.MigrateBlogPosts] : Copy blog posts into the target store
//     - Dedup by exact (title, subtitle); existing posts are skipped with a warning
//     - Remaps categoryId through the mapping, falling back to null
//
//  4. [MigrationEngine.ValidateMigration] : Reconcile both stores
//     - Reports counts and dangling category references; never returns an error
//
// [MigrationEngine.Run] chains the phases and records the run when a [RunRecorder] is configured.
//
// # Reports
//
// A [models.MigrationReport] is created by the caller and passed to each phase. Per-record failures
// are appended to the report and the phase moves on; only failures to read the source store,
// cancellation, or a malformed backup abort a phase.
//
// # Concurrency
//
// Phases run sequentially and issue one lookup and at most one create per record. Two engines must
// not migrate into the same target store at once: the lookup-then-create sequence is not atomic.
// Writes can be throttled with [EngineOpts.WriteRate].
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends never block; updates are dropped
// when the channel is full.
package tasks
