// Package models defines the record shapes and result types of the blog migration engine.
//
// The package contains three groups of types:
//
// 1. Records: fixed-shape values as they exist in either store
//   - [Category] : Blog category, identified for dedup purposes by its name
//   - [Blog] : Blog post, identified for dedup purposes by its (title, subtitle) pair
//
// 2. Migration artifacts
//   - [CategoryIDMapping] : Source category id to target category id translation table
//   - [MigrationReport] : Counts, warnings and errors accumulated across a run
//   - [BackupArtifact] : On-disk snapshot of the source store
//   - [ValidationResult] : Post-migration reconciliation of both stores
//
// 3. Persistence contract
//   - [Collection] : The five primitives (find, find one, count, create, distinct) the engine needs
//     from a store. Any document or relational store exposing them can act as source or target.
//
// Record ids are store-relative: an id issued by the source store carries no meaning in the target store.
package models
