package loader

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/households/internal/testutil"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := New(context.Background(), WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLoader_LoadAndRead(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteCSV(t, `age,dependents,net_worth
19,0,-2500.5
34,2,45000
58,1,610000.25
90,0,120000
`)

	l := newLoader(t)
	require.NoError(t, l.Load(ctx, path))
	assert.Equal(t, path, l.Path())

	hs, err := l.Households(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 4)

	assert.Equal(t, core.Household{ID: 1, Age: 19, Dependents: 0, NetWorth: -2500.5}, hs[0])
	assert.Equal(t, core.Household{ID: 3, Age: 58, Dependents: 1, NetWorth: 610000.25}, hs[2])
	assert.Equal(t, int64(4), hs[3].ID)
}

func TestLoader_ColumnOrderAndExtraColumns(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteCSV(t, `net_worth,region,age,dependents
1000,west,40,3
-50,east,22,0
`)

	hs, err := LoadFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, int64(40), hs[0].Age)
	assert.Equal(t, int64(3), hs[0].Dependents)
	assert.Equal(t, -50.0, hs[1].NetWorth)
}

func TestLoader_MissingColumns(t *testing.T) {
	path := testutil.WriteCSV(t, "age,income\n30,100\n")

	_, err := LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingColumns))
	assert.Contains(t, err.Error(), "dependents")
	assert.Contains(t, err.Error(), "net_worth")
	assert.NotContains(t, err.Error(), "[age")
}

func TestLoader_InvalidCells(t *testing.T) {
	path := testutil.WriteCSV(t, `age,dependents,net_worth
30,1,1000
31.5,0,2000
40,,3000
50,2,lots
`)

	_, err := LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRecord)

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Records, 3)
	assert.Equal(t, int64(2), verr.Records[0].Row)
	assert.Equal(t, core.ColumnAge, verr.Records[0].Column)
	assert.Equal(t, core.ColumnDependents, verr.Records[1].Column)
	assert.Equal(t, int64(4), verr.Records[2].Row)
	assert.Equal(t, core.ColumnNetWorth, verr.Records[2].Column)
}

func TestLoader_OutOfRangeWholeNumbers(t *testing.T) {
	path := testutil.WriteCSV(t, `age,dependents,net_worth
30,0,1000
1e19,0,5000
40,-100000000000000000,2000
45,9007199254740992,3000
`)

	_, err := LoadFile(context.Background(), path)
	require.ErrorIs(t, err, core.ErrInvalidRecord)

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Records, 2)
	assert.Equal(t, core.RecordError{Row: 2, Column: core.ColumnAge, Reason: "not an integer"}, verr.Records[0])
	assert.Equal(t, core.RecordError{Row: 3, Column: core.ColumnDependents, Reason: "not an integer"}, verr.Records[1])
}

func TestWholeNumber(t *testing.T) {
	tests := []struct {
		in   sql.NullFloat64
		want int64
		ok   bool
	}{
		{sql.NullFloat64{Float64: 42, Valid: true}, 42, true},
		{sql.NullFloat64{Float64: -3, Valid: true}, -3, true},
		{sql.NullFloat64{Float64: 1 << 53, Valid: true}, 1 << 53, true},
		{sql.NullFloat64{Float64: 1e19, Valid: true}, 0, false},
		{sql.NullFloat64{Float64: -1e19, Valid: true}, 0, false},
		{sql.NullFloat64{Float64: math.Inf(1), Valid: true}, 0, false},
		{sql.NullFloat64{Float64: 2.5, Valid: true}, 0, false},
		{sql.NullFloat64{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := wholeNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestLoader_EmptyAndMissingFiles(t *testing.T) {
	ctx := context.Background()

	_, err := LoadFile(ctx, testutil.WriteCSV(t, ""))
	assert.ErrorIs(t, err, core.ErrNoHouseholds)

	_, err = LoadFile(ctx, testutil.WriteCSV(t, "age,dependents,net_worth\n"))
	assert.ErrorIs(t, err, core.ErrNoHouseholds)

	_, err = LoadFile(ctx, filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open dataset")
}

func TestLoader_AgeBrackets(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteCSV(t, `age,dependents,net_worth
20,0,-1000
24,0,3000
30,2,50000
50,1,150000
60,1,700000
62,0,500000
80,0,200000
`)

	l := newLoader(t)
	require.NoError(t, l.Load(ctx, path))

	stats, err := l.AgeBrackets(ctx, core.DefaultBrackets())
	require.NoError(t, err)
	require.Len(t, stats, 4)

	young := stats[0]
	assert.Equal(t, "young", young.Bracket.Name)
	assert.Equal(t, int64(2), young.Count)
	assert.InDelta(t, 1000, young.MeanNetWorth, 1e-9)
	assert.InDelta(t, -1000, young.MinNetWorth, 1e-9)
	assert.InDelta(t, 3000, young.MaxNetWorth, 1e-9)

	acc := stats[1]
	assert.Equal(t, int64(2), acc.Count)
	assert.InDelta(t, 1.5, acc.MeanDependents, 1e-9)

	peak := stats[2]
	assert.Equal(t, core.PeakBracket, peak.Bracket.Name)
	assert.InDelta(t, 600000, peak.MeanNetWorth, 1e-9)
	assert.InDelta(t, 600000, peak.MedianNetWorth, 1e-9)

	assert.Equal(t, int64(1), stats[3].Count)
}

func TestLoader_AgeBracketsEmptyBracket(t *testing.T) {
	ctx := context.Background()
	l := newLoader(t)
	require.NoError(t, l.Load(ctx, testutil.WriteCSV(t, "age,dependents,net_worth\n30,0,10\n")))

	stats, err := l.AgeBrackets(ctx, []core.Bracket{
		{Name: "a", MinAge: 18, MaxAge: 29},
		{Name: "b", MinAge: 30, MaxAge: 39},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats[0].Count)
	assert.Equal(t, int64(1), stats[1].Count)

	_, err = l.AgeBrackets(ctx, []core.Bracket{
		{Name: "a", MinAge: 18, MaxAge: 40},
		{Name: "b", MinAge: 30, MaxAge: 39},
	})
	assert.Error(t, err)
}
