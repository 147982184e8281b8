// Package adapter wraps the embedded DuckDB database that ingests household
// datasets and writes Parquet exports.
package adapter

import (
	"context"
	"database/sql"
)

// CopyFormat is a file format understood by DuckDB's COPY statement.
type CopyFormat string

// Supported COPY formats.
const (
	CopyCSV     CopyFormat = "csv"
	CopyParquet CopyFormat = "parquet"
)

// Column is one column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// TableInfo describes a table: its columns in order and its row count.
type TableInfo struct {
	Name    string
	Columns []Column
	Rows    int64
}

// HasColumn reports whether the table has a column with the given name.
func (t *TableInfo) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Missing returns the names in want that the table lacks, in order.
func (t *TableInfo) Missing(want []string) []string {
	var missing []string
	for _, name := range want {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Adapter is the database surface used by the loader and the exporter.
type Adapter interface {
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error

	// Query runs a statement that returns rows. The caller checks rows.Err.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Describe returns the columns and row count of a table.
	Describe(ctx context.Context, table string) (*TableInfo, error)

	// LoadCSV replaces table with the contents of a CSV file, numbering the
	// rows from 1 in a household_id column.
	LoadCSV(ctx context.Context, table, path string) error

	// InsertRows appends rows to an existing table in one transaction.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error

	// CopyTo writes the result of query to path.
	CopyTo(ctx context.Context, query, path string, format CopyFormat) error
}
