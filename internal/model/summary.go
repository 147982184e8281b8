package model

import (
	"math"

	"github.com/leapstack-labs/households/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Side aggregates one side of the redistribution.
type Side struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Mean  float64 `json:"mean"`

	// Profile of the households on this side.
	MeanAge        float64 `json:"mean_age"`
	MeanDependents float64 `json:"mean_dependents"`
	MeanNetWorth   float64 `json:"mean_net_worth"`
}

// profile accumulates household characteristics for one side.
type profile struct {
	age, dependents, netWorth kahanSum
}

func (p *profile) add(a core.Allocation) {
	p.age.Add(float64(a.Age))
	p.dependents.Add(float64(a.Dependents))
	p.netWorth.Add(a.NetWorth)
}

func (p *profile) apply(s *Side) {
	if s.Count == 0 {
		return
	}
	n := float64(s.Count)
	s.Mean = s.Total / n
	s.MeanAge = p.age.Value() / n
	s.MeanDependents = p.dependents.Value() / n
	s.MeanNetWorth = p.netWorth.Value() / n
}

// UtilityCheck describes the spread of marginal utility across households.
type UtilityCheck struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Summary is the redistribution summary printed after a run.
type Summary struct {
	// Recipients hold households with a positive transfer.
	Recipients Side `json:"recipients"`
	// Contributors hold households with a negative transfer. Totals are
	// reported as positive amounts.
	Contributors Side         `json:"contributors"`
	Unchanged    int          `json:"unchanged"`
	Utility      UtilityCheck `json:"marginal_utility"`
}

// Summarize splits the allocations into recipients and contributors.
func Summarize(r *Result) Summary {
	var s Summary
	var in, out kahanSum
	var inProfile, outProfile profile
	for _, a := range r.Allocations {
		switch {
		case a.Receives():
			s.Recipients.Count++
			in.Add(a.Transfer)
			inProfile.add(a)
		case a.Contributes():
			s.Contributors.Count++
			out.Add(-a.Transfer)
			outProfile.add(a)
		default:
			s.Unchanged++
		}
	}
	s.Recipients.Total = in.Value()
	s.Contributors.Total = out.Value()
	inProfile.apply(&s.Recipients)
	outProfile.apply(&s.Contributors)

	mu := column(r.Allocations, func(a core.Allocation) float64 { return a.MarginalUtility })
	if len(mu) > 0 {
		s.Utility.Min = floats.Min(mu)
		s.Utility.Max = floats.Max(mu)
	}
	if len(mu) > 1 {
		s.Utility.StdDev = stat.StdDev(mu, nil)
		if math.IsNaN(s.Utility.StdDev) {
			s.Utility.StdDev = 0
		}
	}
	return s
}

func column(allocs []core.Allocation, f func(core.Allocation) float64) []float64 {
	out := make([]float64, len(allocs))
	for i, a := range allocs {
		out[i] = f(a)
	}
	return out
}
