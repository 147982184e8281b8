package validate

import (
	"math"
	"testing"

	"github.com/leapstack-labs/households/internal/loader"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brackets(means ...float64) []loader.BracketStats {
	defs := core.DefaultBrackets()
	out := make([]loader.BracketStats, len(defs))
	for i, b := range defs {
		out[i] = loader.BracketStats{Bracket: b, Count: 10, MeanNetWorth: means[i]}
	}
	return out
}

func result(t *testing.T, r *Report, id string) Result {
	t.Helper()
	for _, res := range r.Results {
		if res.ID == id {
			return res
		}
	}
	t.Fatalf("no result for check %s", id)
	return Result{}
}

func TestRun_CleanDataset(t *testing.T) {
	in := &Input{
		Households: []core.Household{
			{ID: 1, Age: 18, Dependents: 0, NetWorth: -5000},
			{ID: 2, Age: 60, Dependents: 3, NetWorth: 900000},
			{ID: 3, Age: 100, Dependents: 1, NetWorth: 10000},
		},
		Brackets: brackets(1000, 150000, 800000, 300000),
		PeakBand: core.Band{Min: 500000, Max: 1200000},
	}

	r := Run(in)
	require.Len(t, r.Results, len(Checks()))
	assert.False(t, r.Failed())
	assert.Equal(t, 3, r.Households)
	for _, res := range r.Results {
		assert.Equal(t, StatusPass, res.Status, res.ID)
		assert.NotEmpty(t, res.Name)
	}
}

func TestRun_RangeViolations(t *testing.T) {
	in := &Input{
		Households: []core.Household{
			{ID: 1, Age: 17, Dependents: 0, NetWorth: 1},
			{ID: 2, Age: 101, Dependents: 4, NetWorth: 1},
			{ID: 3, Age: 40, Dependents: -1, NetWorth: math.Inf(1)},
			{ID: 4, Age: 40, Dependents: 1, NetWorth: 1},
		},
	}

	r := Run(in)
	assert.True(t, r.Failed())

	age := result(t, r, CheckAgeRange)
	assert.Equal(t, StatusFail, age.Status)
	assert.Equal(t, 2, age.IssueCount)
	assert.Equal(t, []string{"household 1: age 17", "household 2: age 101"}, age.Examples)
	assert.Equal(t, "2 of 4 households", age.Message)

	deps := result(t, r, CheckDependentsRange)
	assert.Equal(t, StatusFail, deps.Status)
	assert.Equal(t, 2, deps.IssueCount)

	worth := result(t, r, CheckNetWorthFinite)
	assert.Equal(t, StatusFail, worth.Status)
	assert.Equal(t, 1, worth.IssueCount)

	assert.Equal(t, StatusSkip, result(t, r, CheckPeakBracket).Status)
	assert.Equal(t, StatusSkip, result(t, r, CheckPeakBand).Status)
	assert.Equal(t, 3, r.Count(StatusFail))
}

func TestRun_ExamplesAreCapped(t *testing.T) {
	var hs []core.Household
	for i := int64(1); i <= 20; i++ {
		hs = append(hs, core.Household{ID: i, Age: 10})
	}

	res := result(t, Run(&Input{Households: hs, MaxExamples: 3}), CheckAgeRange)
	assert.Equal(t, 20, res.IssueCount)
	assert.Len(t, res.Examples, 3)

	res = result(t, Run(&Input{Households: hs}), CheckAgeRange)
	assert.Len(t, res.Examples, DefaultMaxExamples)
}

func TestRun_PeakBracketNotHighest(t *testing.T) {
	in := &Input{
		Households: []core.Household{{ID: 1, Age: 60}},
		Brackets:   brackets(1000, 900000, 800000, 300000),
	}

	r := Run(in)
	peak := result(t, r, CheckPeakBracket)
	assert.Equal(t, StatusWarn, peak.Status)
	assert.Equal(t, 1, peak.IssueCount)
	require.Len(t, peak.Examples, 1)
	assert.Contains(t, peak.Examples[0], "accumulation")
	assert.False(t, r.Failed())
}

func TestRun_PeakBand(t *testing.T) {
	in := &Input{
		Households: []core.Household{{ID: 1, Age: 60}},
		Brackets:   brackets(1000, 150000, 800000, 300000),
		PeakBand:   core.Band{Min: 100000, Max: 500000},
	}
	band := result(t, Run(in), CheckPeakBand)
	assert.Equal(t, StatusWarn, band.Status)
	assert.Contains(t, band.Message, "800000.00")

	in.PeakBand = core.Band{}
	assert.Equal(t, StatusSkip, result(t, Run(in), CheckPeakBand).Status)
}

func TestRun_EmptyBracketsIgnored(t *testing.T) {
	b := brackets(0, 150000, 800000, 0)
	b[0].Count = 0
	b[3].Count = 0
	in := &Input{Households: []core.Household{{ID: 1, Age: 60}}, Brackets: b}

	assert.Equal(t, StatusPass, result(t, Run(in), CheckPeakBracket).Status)

	b[2].Count = 0
	assert.Equal(t, StatusSkip, result(t, Run(in), CheckPeakBracket).Status)
}
