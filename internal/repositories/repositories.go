// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/blogx/internal/models"
	"github.com/desertthunder/blogx/internal/shared"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers are used for ordering only and never leave the store.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// NewStore wires category and blog repositories over db into a [models.Store].
func NewStore(db *sql.DB) models.Store {
	return models.Store{
		Categories: NewCategoryRepository(db),
		Blogs:      NewBlogRepository(db),
	}
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// filter is a WHERE fragment with its bind arguments.
type filter struct {
	clauses []string
	args    []any
}

func (f *filter) add(clause string, args ...any) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, args...)
}

// sql renders the fragment as " AND ..." clauses appended after "WHERE deleted_at IS NULL".
func (f *filter) sql() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(f.clauses, " AND ")
}

// buildFilter translates equality criteria into SQL using the allowed column set.
//
// A nil value matches NULL. Keys are processed in sorted order so generated SQL is stable.
func buildFilter(columns map[string]string, criteria map[string]any) (*filter, error) {
	f := &filter{}

	keys := make([]string, 0, len(criteria))
	for key := range criteria {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		column, ok := columns[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedField, key)
		}

		switch value := criteria[key].(type) {
		case nil:
			f.add(column + " IS NULL")
		case *string:
			if value == nil {
				f.add(column + " IS NULL")
			} else {
				f.add(column+" = ?", *value)
			}
		default:
			f.add(column+" = ?", value)
		}
	}

	return f, nil
}

// distinct runs SELECT DISTINCT over a whitelisted column, skipping NULLs.
func distinct(ctx context.Context, db *sql.DB, table, column string, f *filter) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE deleted_at IS NULL AND %s IS NOT NULL%s ORDER BY %s",
		column, table, column, f.sql(), column,
	)

	rows, err := db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan distinct %s: %w", column, err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return values, nil
}

// softDelete marks a row deleted.
func softDelete(ctx context.Context, db *sql.DB, table, id string) error {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL", table)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s not found or already deleted", shared.ErrNotFound, table, id)
	}

	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
