package model

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/leapstack-labs/households/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// Stats are descriptive statistics of one numeric column.
// StdDev is the sample standard deviation and is NaN for fewer than two values.
type Stats struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// Describe computes count, mean, std, min, quartiles and max of values.
// Quartiles interpolate linearly between closest ranks.
func Describe(name string, values []float64) Stats {
	s := Stats{Name: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.StdDev, s.Min, s.P25, s.Median, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdDev = math.NaN()
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P25 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.P75 = Quantile(sorted, 0.75)
	return s
}

// MarshalJSON encodes undefined statistics, such as the std of a single
// value, as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string   `json:"name"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		StdDev *float64 `json:"std"`
		Min    *float64 `json:"min"`
		P25    *float64 `json:"p25"`
		Median *float64 `json:"p50"`
		P75    *float64 `json:"p75"`
		Max    *float64 `json:"max"`
	}{
		Name:   s.Name,
		Count:  s.Count,
		Mean:   finite(s.Mean),
		StdDev: finite(s.StdDev),
		Min:    finite(s.Min),
		P25:    finite(s.P25),
		Median: finite(s.Median),
		P75:    finite(s.P75),
		Max:    finite(s.Max),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Quantile returns the q-th quantile of sorted using linear interpolation
// between the two nearest ranks. sorted must be ascending and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// DescribeResult describes the columns shown in the aggregate report.
func DescribeResult(r *Result) []Stats {
	return []Stats{
		Describe("net_worth", column(r.Allocations, func(a core.Allocation) float64 { return a.NetWorth })),
		Describe("target_lifetime_consumption", column(r.Allocations, func(a core.Allocation) float64 { return a.TargetLifetimeConsumption })),
		Describe("transfer", column(r.Allocations, func(a core.Allocation) float64 { return a.Transfer })),
		Describe("annual_consumption", column(r.Allocations, func(a core.Allocation) float64 { return a.AnnualConsumption })),
	}
}

// DescribeHouseholds describes the raw input columns.
func DescribeHouseholds(hs []core.Household) []Stats {
	ages := make([]float64, len(hs))
	deps := make([]float64, len(hs))
	worth := make([]float64, len(hs))
	for i, h := range hs {
		ages[i] = float64(h.Age)
		deps[i] = float64(h.Dependents)
		worth[i] = h.NetWorth
	}
	return []Stats{
		Describe(core.ColumnAge, ages),
		Describe(core.ColumnDependents, deps),
		Describe(core.ColumnNetWorth, worth),
	}
}
