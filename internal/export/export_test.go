package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/households/internal/adapter"
	"github.com/leapstack-labs/households/internal/model"
	"github.com/leapstack-labs/households/internal/testutil"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAllocations(t *testing.T) []core.Allocation {
	t.Helper()
	res, err := model.Solve([]core.Household{
		{ID: 1, Age: 30, Dependents: 2, NetWorth: 20000},
		{ID: 2, Age: 60, Dependents: 0, NetWorth: 380000},
	}, core.DefaultParameters())
	require.NoError(t, err)
	return res.Allocations
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       Format
		wantErr    bool
	}{
		{"", "out.csv", FormatCSV, false},
		{"", "out.json", FormatJSON, false},
		{"", "out.PARQUET", FormatParquet, false},
		{"", "out", FormatCSV, false},
		{"json", "out.csv", FormatJSON, false},
		{"Parquet", "", FormatParquet, false},
		{"xlsx", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ParseFormat(%q, %q)", tt.name, tt.path)
	}
}

func TestWriteCSV(t *testing.T) {
	allocs := sampleAllocations(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, allocs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Len(t, records[0], 12)

	// T = 400000, A = 70*1.6 + 40*1 = 152
	row := records[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "30", row[1])
	assert.Equal(t, "2", row[2])
	assert.Equal(t, "20000", row[3])
	assert.Equal(t, "70", row[6])
	assert.Equal(t, "1.6", row[7])
	assert.Equal(t, "112", row[8])
}

func TestWriteJSON(t *testing.T) {
	allocs := sampleAllocations(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, allocs))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	for _, c := range Columns {
		assert.Contains(t, got[0], c)
	}
	assert.Len(t, got[0], len(Columns))
	assert.EqualValues(t, 60, got[1]["age"])

	// keys appear in column order
	first := buf.String()
	assert.Less(t, strings.Index(first, `"net_worth_after_redistribution"`), strings.Index(first, `"transfer"`))
	assert.Less(t, strings.Index(first, `"L_phi"`), strings.Index(first, `"annual_consumption"`))
}

func TestExporter_CreatesDirectories(t *testing.T) {
	ctx := context.Background()
	allocs := sampleAllocations(t)
	e := New(WithLogger(testutil.NewTestLogger(t)))

	for _, f := range []Format{FormatCSV, FormatJSON} {
		path := filepath.Join(t.TempDir(), "nested", "dir", "results."+string(f))
		require.NoError(t, e.Export(ctx, path, f, allocs))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestExporter_Parquet(t *testing.T) {
	ctx := context.Background()
	allocs := sampleAllocations(t)

	db, err := adapter.OpenMemory(ctx)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	path := filepath.Join(t.TempDir(), "out", "results.parquet")
	e := New(WithAdapter(db), WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, e.Export(ctx, path, FormatParquet, allocs))

	rows, err := db.Query(ctx, "SELECT household_id, transfer FROM read_parquet(?) ORDER BY household_id", path)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var ids []int64
	var sum float64
	for rows.Next() {
		var id int64
		var transfer float64
		require.NoError(t, rows.Scan(&id, &transfer))
		ids = append(ids, id)
		sum += transfer
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 2}, ids)
	assert.InDelta(t, 0, sum, 1e-6)

	_, err = db.Describe(ctx, resultsTable)
	assert.Error(t, err, "staging table is dropped after export")
}

func TestExporter_ParquetWithoutAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")
	require.NoError(t, New().Export(context.Background(), path, FormatParquet, sampleAllocations(t)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExporter_UnknownFormat(t *testing.T) {
	err := New().Export(context.Background(), filepath.Join(t.TempDir(), "x"), Format("xml"), nil)
	assert.ErrorContains(t, err, "unknown export format")
}
