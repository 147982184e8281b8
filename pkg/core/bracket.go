package core

import "fmt"

// Bracket is an inclusive age range used to group households.
type Bracket struct {
	Name   string `json:"name" koanf:"name" yaml:"name"`
	MinAge int64  `json:"min_age" koanf:"min_age" yaml:"min_age"`
	MaxAge int64  `json:"max_age" koanf:"max_age" yaml:"max_age"`
}

// Name of the bracket expected to hold peak wealth.
const PeakBracket = "peak"

// DefaultBrackets returns the life-cycle brackets of the SCF-style wealth
// trajectory: low wealth for young adults, accumulation through working age,
// a peak before retirement and drawdown afterwards.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{Name: "young", MinAge: 18, MaxAge: 24},
		{Name: "accumulation", MinAge: 25, MaxAge: 54},
		{Name: PeakBracket, MinAge: 55, MaxAge: 65},
		{Name: "drawdown", MinAge: 66, MaxAge: 100},
	}
}

// Contains reports whether age falls in the bracket.
func (b Bracket) Contains(age int64) bool {
	return age >= b.MinAge && age <= b.MaxAge
}

// String implements fmt.Stringer.
func (b Bracket) String() string {
	return fmt.Sprintf("%s (%d-%d)", b.Name, b.MinAge, b.MaxAge)
}

// ValidateBrackets rejects unnamed, inverted, duplicate or overlapping brackets.
func ValidateBrackets(brackets []Bracket) error {
	seen := make(map[string]bool, len(brackets))
	for i, b := range brackets {
		if b.Name == "" {
			return fmt.Errorf("bracket %d: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("bracket %q: duplicate name", b.Name)
		}
		seen[b.Name] = true
		if b.MinAge > b.MaxAge {
			return fmt.Errorf("bracket %q: min_age %d is greater than max_age %d", b.Name, b.MinAge, b.MaxAge)
		}
		for _, other := range brackets[:i] {
			if b.MinAge <= other.MaxAge && other.MinAge <= b.MaxAge {
				return fmt.Errorf("bracket %q overlaps bracket %q", b.Name, other.Name)
			}
		}
	}
	return nil
}

// Band is an inclusive range of values. A zero band is unset.
type Band struct {
	Min float64 `json:"min" koanf:"min" yaml:"min"`
	Max float64 `json:"max" koanf:"max" yaml:"max"`
}

// IsZero reports whether the band is unset.
func (b Band) IsZero() bool { return b.Min == 0 && b.Max == 0 }

// Contains reports whether v lies in the band.
func (b Band) Contains(v float64) bool { return v >= b.Min && v <= b.Max }
