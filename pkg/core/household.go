package core

import "fmt"

// Dataset bounds for a household record.
const (
	MinAge        = 18
	MaxAge        = 100
	MinDependents = 0
	MaxDependents = 3
)

// Required CSV columns.
const (
	ColumnAge        = "age"
	ColumnDependents = "dependents"
	ColumnNetWorth   = "net_worth"
)

// RequiredColumns lists the columns every household dataset must carry.
var RequiredColumns = []string{ColumnAge, ColumnDependents, ColumnNetWorth}

// Household is one row of the household dataset.
// ID is assigned on load, starting at 1 in file order.
type Household struct {
	ID         int64   `json:"household_id"`
	Age        int64   `json:"age"`
	Dependents int64   `json:"dependents"`
	NetWorth   float64 `json:"net_worth"`
}

// String implements fmt.Stringer.
func (h Household) String() string {
	return fmt.Sprintf("household %d (age %d, %d dependents, net worth %.2f)", h.ID, h.Age, h.Dependents, h.NetWorth)
}

// Parameters controls the redistribution model.
type Parameters struct {
	// MaxLifeExpectancy is the age everyone is assumed to live to.
	MaxLifeExpectancy int64 `json:"max_life_expectancy" koanf:"max_life_expectancy"`

	// DependentWeight is the share of extra needs each dependent adds.
	// 0.3 means a household with 2 dependents needs 1.6x a single adult.
	DependentWeight float64 `json:"dependent_weight" koanf:"dependent_weight"`
}

// Default model parameters.
const (
	DefaultMaxLifeExpectancy = 100
	DefaultDependentWeight   = 0.3
)

// DefaultParameters returns the parameters of the reference model.
func DefaultParameters() Parameters {
	return Parameters{
		MaxLifeExpectancy: DefaultMaxLifeExpectancy,
		DependentWeight:   DefaultDependentWeight,
	}
}

// Validate checks that the parameters describe a usable model.
func (p Parameters) Validate() error {
	if p.MaxLifeExpectancy <= 0 {
		return fmt.Errorf("%w: max_life_expectancy must be positive, got %d", ErrInvalidParameters, p.MaxLifeExpectancy)
	}
	if p.DependentWeight < 0 {
		return fmt.Errorf("%w: dependent_weight must not be negative, got %g", ErrInvalidParameters, p.DependentWeight)
	}
	return nil
}

// Allocation is the redistribution outcome for one household.
type Allocation struct {
	Household

	RemainingYears              float64 `json:"L"`
	Phi                         float64 `json:"phi"`
	LPhi                        float64 `json:"L_phi"`
	AnnualConsumption           float64 `json:"annual_consumption"`
	TargetLifetimeConsumption   float64 `json:"target_lifetime_consumption"`
	Transfer                    float64 `json:"transfer"`
	NetWorthAfterRedistribution float64 `json:"net_worth_after_redistribution"`
	MarginalUtility             float64 `json:"marginal_utility"`
}

// Receives reports whether the household is a net recipient.
func (a Allocation) Receives() bool { return a.Transfer > 0 }

// Contributes reports whether the household is a net contributor.
func (a Allocation) Contributes() bool { return a.Transfer < 0 }
