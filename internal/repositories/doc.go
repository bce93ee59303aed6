// Package repositories implements SQLite persistence for categories, blog posts and migration runs.
//
// Each repository exposes the [models.Collection] primitives the migration engine needs, so the
// same types serve as either the source or the target store. Records are soft deleted via
// deleted_at timestamps and excluded from every query once deleted.
//
// Key Implementations:
//   - [CategoryRepository] : Categories, looked up by name during dedup
//   - [BlogRepository] : Blog posts, looked up by (title, subtitle) during dedup
//   - [RunRepository] : Audit trail of migration runs written to the target store
//
// Sequence numbers provide stable insertion ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
