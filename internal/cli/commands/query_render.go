package commands

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// resultSet is a fully read query result. Column order is kept for every
// format except JSON objects.
type resultSet struct {
	Columns []string
	Rows    [][]any
}

func scanResults(rows *sql.Rows) (*resultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &resultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, rows.Err()
}

// numeric reports whether every non-NULL value of column i is a number.
func (rs *resultSet) numeric(i int) bool {
	seen := false
	for _, row := range rs.Rows {
		switch row[i].(type) {
		case nil:
		case int64, float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func (rs *resultSet) formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = formatValue(v)
	}
	return out
}

func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	rs, err := scanResults(rows)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, rs)
	case "csv":
		return renderCSV(w, rs)
	case "md", "markdown":
		return renderMarkdown(w, rs)
	default:
		return renderTable(w, rs)
	}
}

func renderTable(w io.Writer, rs *resultSet) error {
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newResultTable(w)

	header := make(table.Row, len(rs.Columns))
	var configs []table.ColumnConfig
	for i, col := range rs.Columns {
		header[i] = col
		if rs.numeric(i) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range rs.Rows {
		cells := make(table.Row, len(row))
		for i, v := range rs.formatRow(row) {
			cells[i] = v
		}
		t.AppendRow(cells)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return nil
}

// newResultTable returns a box table that prints column names as given, so
// headers match what is typed in SQL.
func newResultTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

func renderJSON(w io.Writer, rs *resultSet) error {
	objects := make([]map[string]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		obj := make(map[string]any, len(row))
		for i, col := range rs.Columns {
			obj[col] = row[i]
		}
		objects = append(objects, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func renderCSV(w io.Writer, rs *resultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	for _, row := range rs.Rows {
		if err := cw.Write(rs.formatRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, rs *resultSet) error {
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	line := func(cells []string) {
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}

	line(append([]string(nil), rs.Columns...))
	seps := make([]string, len(rs.Columns))
	for i := range seps {
		seps[i] = "---"
		if rs.numeric(i) {
			seps[i] = "---:"
		}
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rs.Rows {
		line(rs.formatRow(row))
	}
	return nil
}

// formatValue renders a scanned value. Floats never use exponent notation so
// money columns stay readable.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Local().Format(time.DateTime)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func listTablesFromDB(ctx context.Context, w io.Writer, db *sql.DB, format string, viewsOnly bool) error {
	query := `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
	`
	if viewsOnly {
		query += ` AND type = 'view'`
	}
	query += ` ORDER BY type DESC, name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// schemaOutput describes one table or view.
type schemaOutput struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Columns []columnInfo `json:"columns"`
	Indexes []string     `json:"indexes,omitempty"`
}

// columnInfo represents schema column information.
type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable string `json:"nullable"`
	Default  string `json:"default"`
	PK       bool   `json:"pk"`
}

func loadSchema(ctx context.Context, db *sql.DB, name string) (*schemaOutput, error) {
	schema := &schemaOutput{Name: name}
	err := db.QueryRowContext(ctx,
		`SELECT type FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`, name).Scan(&schema.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table or view '%s' not found", name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			col     columnInfo
			notNull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		col.Nullable = "YES"
		if notNull == 1 {
			col.Nullable = "NO"
		}
		col.Default = dflt.String
		col.PK = pk > 0
		if col.PK {
			col.Default = strings.TrimSpace(col.Default + " (primary key)")
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if schema.Type == "table" {
		idx, err := db.QueryContext(ctx, `
			SELECT name FROM sqlite_master
			WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%'
			ORDER BY name`, name)
		if err != nil {
			return nil, err
		}
		defer func() { _ = idx.Close() }()
		for idx.Next() {
			var n string
			if err := idx.Scan(&n); err != nil {
				return nil, err
			}
			schema.Indexes = append(schema.Indexes, n)
		}
		if err := idx.Err(); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

func showSchemaFromDB(ctx context.Context, w io.Writer, db *sql.DB, tableName, format string) error {
	schema, err := loadSchema(ctx, db, tableName)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	}

	title := "Table"
	if schema.Type == "view" {
		title = "View"
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", title, schema.Name)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := newResultTable(w)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default"})
	for _, col := range schema.Columns {
		t.AppendRow(table.Row{col.Name, col.Type, col.Nullable, col.Default})
	}
	t.Render()

	if len(schema.Indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Indexes:")
		for _, idx := range schema.Indexes {
			_, _ = fmt.Fprintf(w, "  %s\n", idx)
		}
	}
	return nil
}
