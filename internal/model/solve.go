package model

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/households/pkg/core"
)

// Tolerances for Check. The absolute tolerance is scaled by the gross wealth
// moved through the model so large populations are not rejected for rounding.
const (
	checkRTol = 1e-5
	checkATol = 1e-8
)

// Result is the solved redistribution.
type Result struct {
	Parameters        core.Parameters
	Allocations       []core.Allocation
	TotalResources    float64
	TotalAdjustedLife float64
	// CBar is consumption per equivalent-adult-year, equal for everyone.
	CBar float64
	// GrossWealth is sum(|net_worth|), the scale used by Check.
	GrossWealth float64
}

// Totals returns the population-level figures stored with a run.
func (r *Result) Totals() core.RunTotals {
	return core.RunTotals{
		NumHouseholds:     len(r.Allocations),
		TotalResources:    r.TotalResources,
		TotalAdjustedLife: r.TotalAdjustedLife,
		CBar:              r.CBar,
	}
}

// Solve redistributes the households' combined net worth so that every
// household consumes the same amount per equivalent-adult-year.
func Solve(households []core.Household, params core.Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(households) == 0 {
		return nil, core.ErrNoHouseholds
	}

	allocs := make([]core.Allocation, len(households))
	for i, h := range households {
		if math.IsNaN(h.NetWorth) || math.IsInf(h.NetWorth, 0) {
			return nil, fmt.Errorf("%w: household %d has non-finite net worth", core.ErrInvalidRecord, h.ID)
		}
		l := RemainingLifeYears(h.Age, params.MaxLifeExpectancy)
		phi := EquivalenceScale(h.Dependents, params.DependentWeight)
		allocs[i] = core.Allocation{
			Household:      h,
			RemainingYears: l,
			Phi:            phi,
			LPhi:           l * phi,
		}
	}

	total := sumOf(households, func(h core.Household) float64 { return h.NetWorth })
	gross := sumOf(households, func(h core.Household) float64 { return math.Abs(h.NetWorth) })
	adjusted := sumOf(allocs, func(a core.Allocation) float64 { return a.LPhi })
	if adjusted == 0 {
		return nil, fmt.Errorf("%w: every household is at or past age %d", core.ErrNoRemainingLife, params.MaxLifeExpectancy)
	}

	cBar := total / adjusted
	mu := MarginalUtility(cBar)
	for i := range allocs {
		a := &allocs[i]
		a.TargetLifetimeConsumption = cBar * a.LPhi
		a.AnnualConsumption = cBar * a.Phi
		a.Transfer = a.TargetLifetimeConsumption - a.NetWorth
		a.NetWorthAfterRedistribution = a.NetWorth + a.Transfer
		a.MarginalUtility = mu
	}

	return &Result{
		Parameters:        params,
		Allocations:       allocs,
		TotalResources:    total,
		TotalAdjustedLife: adjusted,
		CBar:              cBar,
		GrossWealth:       gross,
	}, nil
}

// Check verifies that allocations use up exactly the pooled resources and
// that transfers balance.
func Check(r *Result) error {
	atol := checkATol * math.Max(1, r.GrossWealth)

	allocated := sumOf(r.Allocations, func(a core.Allocation) float64 { return a.TargetLifetimeConsumption })
	if !isClose(allocated, r.TotalResources, checkRTol, atol) {
		return fmt.Errorf("%w: total allocation %.6f does not sum to total resources %.6f",
			core.ErrInconsistent, allocated, r.TotalResources)
	}

	net := sumOf(r.Allocations, func(a core.Allocation) float64 { return a.Transfer })
	if !isClose(net, 0, checkRTol, atol) {
		return fmt.Errorf("%w: transfers do not balance (net %.6f)", core.ErrInconsistent, net)
	}
	return nil
}
