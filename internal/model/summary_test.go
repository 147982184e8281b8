package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/leapstack-labs/households/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	hs := []core.Household{
		{ID: 1, Age: 20, Dependents: 2, NetWorth: 0},
		{ID: 2, Age: 30, Dependents: 1, NetWorth: 10_000},
		{ID: 3, Age: 80, Dependents: 0, NetWorth: 900_000},
	}
	res, err := Solve(hs, core.DefaultParameters())
	require.NoError(t, err)

	s := Summarize(res)
	assert.Equal(t, 2, s.Recipients.Count)
	assert.Equal(t, 1, s.Contributors.Count)
	assert.Equal(t, 0, s.Unchanged)
	assert.InDelta(t, s.Recipients.Total, s.Contributors.Total, 1e-6)
	assert.InDelta(t, -res.Allocations[2].Transfer, s.Contributors.Total, 1e-6)
	assert.InDelta(t, s.Recipients.Total/2, s.Recipients.Mean, 1e-6)

	assert.InDelta(t, 25, s.Recipients.MeanAge, 1e-9)
	assert.InDelta(t, 1.5, s.Recipients.MeanDependents, 1e-9)
	assert.InDelta(t, 5_000, s.Recipients.MeanNetWorth, 1e-9)
	assert.InDelta(t, 80, s.Contributors.MeanAge, 1e-9)
	assert.InDelta(t, 900_000, s.Contributors.MeanNetWorth, 1e-9)

	assert.Equal(t, s.Utility.Min, s.Utility.Max)
	assert.Equal(t, 0.0, s.Utility.StdDev)
}

func TestSummarize_SingleHousehold(t *testing.T) {
	res, err := Solve([]core.Household{{ID: 1, Age: 40, NetWorth: 600}}, core.DefaultParameters())
	require.NoError(t, err)

	s := Summarize(res)
	assert.Equal(t, 0, s.Recipients.Count)
	assert.Equal(t, 0, s.Contributors.Count)
	assert.Equal(t, 1, s.Unchanged)
	assert.False(t, math.IsNaN(s.Utility.StdDev))
}

func TestDescribe(t *testing.T) {
	s := Describe("x", []float64{4, 1, 3, 2})

	assert.Equal(t, "x", s.Name)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.P25, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 3.25, s.P75, 1e-12)
	assert.Equal(t, 4.0, s.Max)
}

func TestDescribe_Degenerate(t *testing.T) {
	empty := Describe("empty", nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))

	one := Describe("one", []float64{7})
	assert.Equal(t, 7.0, one.Mean)
	assert.Equal(t, 7.0, one.Median)
	assert.True(t, math.IsNaN(one.StdDev))
}

func TestStats_MarshalJSONNullsUndefined(t *testing.T) {
	data, err := json.Marshal(Describe("one", []float64{7}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"one","count":1,"mean":7,"std":null,"min":7,"p25":7,"p50":7,"p75":7,"max":7}`, string(data))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 10.0, Quantile(sorted, 0))
	assert.Equal(t, 30.0, Quantile(sorted, 0.5))
	assert.Equal(t, 50.0, Quantile(sorted, 1))
	assert.InDelta(t, 22.0, Quantile(sorted, 0.3), 1e-12)
}

func TestDescribeResultAndHouseholds(t *testing.T) {
	res, err := Solve(twoHouseholds(), core.DefaultParameters())
	require.NoError(t, err)

	stats := DescribeResult(res)
	require.Len(t, stats, 4)
	assert.Equal(t, "net_worth", stats[0].Name)
	assert.Equal(t, "transfer", stats[2].Name)
	assert.InDelta(t, 0, stats[2].Mean, 1e-9)

	in := DescribeHouseholds(twoHouseholds())
	require.Len(t, in, 3)
	assert.Equal(t, core.ColumnAge, in[0].Name)
	assert.Equal(t, 50.0, in[0].Mean)
	assert.Equal(t, 1.0, in[1].Mean)
}
