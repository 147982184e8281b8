package model

import "math"

// minConsumption floors consumption before taking its reciprocal.
const minConsumption = 1e-10

// EquivalenceScale returns phi(d) = 1 + weight*d.
func EquivalenceScale(dependents int64, weight float64) float64 {
	return 1 + weight*float64(dependents)
}

// RemainingLifeYears returns max(0, maxAge-age).
func RemainingLifeYears(age, maxAge int64) float64 {
	if age >= maxAge {
		return 0
	}
	return float64(maxAge) - float64(age)
}

// MarginalUtility returns 1/c with c floored at 1e-10.
func MarginalUtility(consumptionPerYear float64) float64 {
	return 1.0 / math.Max(consumptionPerYear, minConsumption)
}
