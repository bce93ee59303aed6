// Package ui implements the terminal presentation layer: a [lipgloss] palette for CLI summaries and an
// interactive migration view using bubbletea's Elm architecture.
//
// The TUI walks through one pipeline run:
//  1. [ConfirmView] : Show the source and target stores and wait for confirmation
//  2. [MigrateView] : Monitor real-time progress updates from the migration engine
//  3. [ResultView] : Display counts, validation status and a summary of problems
//  4. [IssuesView] : Browse every warning, error and validation issue
//
// Progress updates flow through a channel from the MigrationEngine, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
