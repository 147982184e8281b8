package adapter

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openMemory(t *testing.T) *DuckDB {
	t.Helper()
	db, err := OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, "")
	if err != nil {
		t.Fatalf("open in-memory: %v", err)
	}
	if mem.Path() != Memory {
		t.Errorf("empty path opened %q, want %q", mem.Path(), Memory)
	}
	_ = mem.Close()

	path := filepath.Join(t.TempDir(), "households.duckdb")
	file, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = file.Close() }()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
}

func TestExecAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if err := db.Exec(ctx, `CREATE TABLE households (age INTEGER, dependents INTEGER, net_worth DOUBLE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := db.Exec(ctx, `INSERT INTO households VALUES (?, ?, ?), (?, ?, ?)`, 30, 1, 1500.5, 60, 0, 250000.0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := db.Query(ctx, `SELECT age, net_worth FROM households WHERE dependents = ?`, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var got [][2]float64
	for rows.Next() {
		var age int
		var worth float64
		if err := rows.Scan(&age, &worth); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, [2]float64{float64(age), worth})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if want := [][2]float64{{30, 1500.5}}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if err := db.Exec(ctx, `CREATE TABLE households (age INTEGER NOT NULL, dependents INTEGER, net_worth DOUBLE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := db.Exec(ctx, `INSERT INTO households VALUES (25, 0, -1200.0), (58, 2, 410000.0)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	info, err := db.Describe(ctx, "households")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if info.Name != "households" || info.Rows != 2 {
		t.Errorf("got %s with %d rows, want households with 2", info.Name, info.Rows)
	}

	want := []Column{
		{Name: "age", Type: "INTEGER", Nullable: false},
		{Name: "dependents", Type: "INTEGER", Nullable: true},
		{Name: "net_worth", Type: "DOUBLE", Nullable: true},
	}
	if !reflect.DeepEqual(info.Columns, want) {
		t.Errorf("columns = %+v, want %+v", info.Columns, want)
	}

	if missing := info.Missing([]string{"age", "income", "net_worth", "region"}); !reflect.DeepEqual(missing, []string{"income", "region"}) {
		t.Errorf("Missing = %v", missing)
	}

	if _, err := db.Describe(ctx, "nonexistent_table"); err == nil {
		t.Error("expected error for nonexistent table")
	}
}

func TestLoadCSV(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	// A quote in the directory name must survive literal quoting.
	dir := filepath.Join(t.TempDir(), "o'brien")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "household_data.csv")
	writeFile(t, csvPath, "age,dependents,net_worth\n22,0,-3500.0\n41,2,98000.5\n63,1,512000.0\n")

	if err := db.LoadCSV(ctx, "households", csvPath); err != nil {
		t.Fatalf("load CSV: %v", err)
	}

	rows, err := db.Query(ctx, "SELECT household_id, age FROM households ORDER BY household_id")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var ids, ages []int64
	for rows.Next() {
		var id, age int64
		if err := rows.Scan(&id, &age); err != nil {
			t.Fatalf("scan: %v", err)
		}
		ids = append(ids, id)
		ages = append(ages, age)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) || !reflect.DeepEqual(ages, []int64{22, 41, 63}) {
		t.Errorf("ids = %v, ages = %v", ids, ages)
	}

	info, err := db.Describe(ctx, "households")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if info.Columns[0].Name != "household_id" || len(info.Columns) != 4 {
		t.Errorf("columns = %+v, want household_id plus the 3 CSV columns", info.Columns)
	}

	if err := db.LoadCSV(ctx, "households", filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error loading a missing file")
	}
}

func TestInsertRowsAndCopyTo(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	if err := db.Exec(ctx, `CREATE TABLE transfers (household_id BIGINT, transfer DOUBLE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	rows := [][]any{{int64(1), 1200.0}, {int64(2), -1200.0}}
	if err := db.InsertRows(ctx, "transfers", []string{"household_id", "transfer"}, rows); err != nil {
		t.Fatalf("insert rows: %v", err)
	}

	readers := map[CopyFormat]string{CopyCSV: "read_csv_auto", CopyParquet: "read_parquet"}
	for format, reader := range readers {
		out := filepath.Join(t.TempDir(), "transfers."+string(format))
		if err := db.CopyTo(ctx, "SELECT * FROM transfers ORDER BY household_id", out, format); err != nil {
			t.Fatalf("copy to %s: %v", format, err)
		}

		var sum float64
		var count int64
		err := db.db.QueryRowContext(ctx, "SELECT SUM(transfer), COUNT(*) FROM "+reader+"(?)", out).Scan(&sum, &count)
		if err != nil {
			t.Fatalf("read back %s: %v", format, err)
		}
		if count != 2 || sum != 0 {
			t.Errorf("%s: count=%d sum=%.2f, want 2 and 0", format, count, sum)
		}
	}

	if err := db.InsertRows(ctx, "transfers", []string{"missing"}, [][]any{{1}}); err == nil {
		t.Error("expected error inserting into unknown column")
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if err := db.Exec(ctx, "SELECT 1"); err != errClosed {
		t.Errorf("Exec after close = %v", err)
	}
	if _, err := db.Query(ctx, "SELECT 1"); err != errClosed {
		t.Errorf("Query after close = %v", err)
	}
	if err := db.InsertRows(ctx, "t", []string{"a"}, nil); err != errClosed {
		t.Errorf("InsertRows after close = %v", err)
	}
	if err := db.LoadCSV(ctx, "t", "x.csv"); err == nil {
		t.Error("LoadCSV after close should fail")
	}
}

func TestQuoting(t *testing.T) {
	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("quoteIdent = %s", got)
	}
	if got := quoteLiteral("it's"); got != "'it''s'" {
		t.Errorf("quoteLiteral = %s", got)
	}
}
