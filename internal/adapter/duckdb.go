package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Memory is the DuckDB path for an in-memory database.
const Memory = ":memory:"

var errClosed = errors.New("duckdb: database is closed")

// DuckDB is an Adapter backed by a DuckDB database.
type DuckDB struct {
	db   *sql.DB
	path string
}

var _ Adapter = (*DuckDB)(nil)

// Open connects to the DuckDB database at path, creating the file if needed.
// An empty path opens an in-memory database.
func Open(ctx context.Context, path string) (*DuckDB, error) {
	if path == "" {
		path = Memory
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb %s: %w", path, err)
	}
	return &DuckDB{db: db, path: path}, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory(ctx context.Context) (*DuckDB, error) {
	return Open(ctx, Memory)
}

// Path returns the database path, or Memory.
func (d *DuckDB) Path() string {
	return d.path
}

// Close closes the database. Closing twice is a no-op.
func (d *DuckDB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Exec runs a statement that returns no rows.
func (d *DuckDB) Exec(ctx context.Context, query string, args ...any) error {
	if d.db == nil {
		return errClosed
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement that returns rows.
func (d *DuckDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if d.db == nil {
		return nil, errClosed
	}
	//nolint:rowserrcheck // the caller checks rows.Err after iterating
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// Describe returns the columns and row count of a table in the main schema.
func (d *DuckDB) Describe(ctx context.Context, table string) (*TableInfo, error) {
	rows, err := d.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	info := &TableInfo{Name: table}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		info.Columns = append(info.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&info.Rows); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return info, nil
}

// LoadCSV replaces table with the CSV at path. Column types are inferred by
// read_csv_auto; household_id follows file order.
func (d *DuckDB) LoadCSV(ctx context.Context, table, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT row_number() OVER () AS household_id, * FROM read_csv_auto(%s, header=true)",
		quoteIdent(table), quoteLiteral(abs))
	if err := d.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV %s: %w", path, err)
	}
	return nil
}

// InsertRows appends rows to table through one prepared statement.
func (d *DuckDB) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if d.db == nil {
		return errClosed
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i+1, table, err)
		}
	}
	return tx.Commit()
}

// CopyTo writes the result of query to path. CSV output carries a header row.
func (d *DuckDB) CopyTo(ctx context.Context, query, path string, format CopyFormat) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	opts := "FORMAT " + strings.ToUpper(string(format))
	if format == CopyCSV {
		opts += ", HEADER"
	}
	if err := d.Exec(ctx, fmt.Sprintf("COPY (%s) TO %s (%s)", query, quoteLiteral(abs), opts)); err != nil {
		return fmt.Errorf("failed to copy to %s: %w", path, err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
