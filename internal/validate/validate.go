// Package validate runs data-quality checks over a loaded household dataset.
//
// Each check produces a status of pass, warn, fail or skip. Range checks on
// individual rows fail; checks on the shape of the age/wealth trajectory warn,
// since a synthetic dataset can legitimately deviate from the documented shape.
package validate

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/households/internal/loader"
	"github.com/leapstack-labs/households/pkg/core"
)

// Status is the outcome of a single check.
type Status string

// Check statuses.
const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Severity is the status a check reports when it finds issues.
type Severity = Status

// Check IDs.
const (
	CheckAgeRange        = "age-range"
	CheckDependentsRange = "dependents-range"
	CheckNetWorthFinite  = "net-worth-finite"
	CheckPeakBracket     = "peak-bracket"
	CheckPeakBand        = "peak-band"
)

// DefaultMaxExamples is the number of offending rows kept per check.
const DefaultMaxExamples = 5

// Input is the data a report is computed from.
type Input struct {
	Households []core.Household
	// Brackets are the SQL bracket aggregates of the same dataset.
	Brackets []loader.BracketStats
	// PeakBand bounds the mean net worth of the peak bracket. Zero skips the check.
	PeakBand core.Band
	// MaxExamples caps the offending rows listed per check. Zero means DefaultMaxExamples.
	MaxExamples int
}

// Result is the outcome of one check.
type Result struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     Status   `json:"status"`
	IssueCount int      `json:"issue_count"`
	Message    string   `json:"message,omitempty"`
	Examples   []string `json:"examples,omitempty"`
}

// Report collects the results of every check.
type Report struct {
	Dataset    string                `json:"dataset,omitempty"`
	Households int                   `json:"households"`
	Results    []Result              `json:"results"`
	Brackets   []loader.BracketStats `json:"brackets,omitempty"`
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

// Count returns how many results have the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Check is a single data-quality rule.
type Check struct {
	ID       string
	Name     string
	Severity Severity
	Run      func(in *Input) Result
}

// Checks returns every built-in check in report order.
func Checks() []Check {
	return []Check{
		{
			ID:       CheckAgeRange,
			Name:     fmt.Sprintf("age within %d-%d", core.MinAge, core.MaxAge),
			Severity: StatusFail,
			Run: rowCheck(func(h core.Household) string {
				if h.Age < core.MinAge || h.Age > core.MaxAge {
					return fmt.Sprintf("household %d: age %d", h.ID, h.Age)
				}
				return ""
			}),
		},
		{
			ID:       CheckDependentsRange,
			Name:     fmt.Sprintf("dependents within %d-%d", core.MinDependents, core.MaxDependents),
			Severity: StatusFail,
			Run: rowCheck(func(h core.Household) string {
				if h.Dependents < core.MinDependents || h.Dependents > core.MaxDependents {
					return fmt.Sprintf("household %d: %d dependents", h.ID, h.Dependents)
				}
				return ""
			}),
		},
		{
			ID:       CheckNetWorthFinite,
			Name:     "net worth is finite",
			Severity: StatusFail,
			Run: rowCheck(func(h core.Household) string {
				if math.IsNaN(h.NetWorth) || math.IsInf(h.NetWorth, 0) {
					return fmt.Sprintf("household %d: net worth %v", h.ID, h.NetWorth)
				}
				return ""
			}),
		},
		{
			ID:       CheckPeakBracket,
			Name:     "peak bracket holds the highest mean net worth",
			Severity: StatusWarn,
			Run:      checkPeakBracket,
		},
		{
			ID:       CheckPeakBand,
			Name:     "peak bracket mean within band",
			Severity: StatusWarn,
			Run:      checkPeakBand,
		},
	}
}

// Run executes every check against in.
func Run(in *Input) *Report {
	report := &Report{
		Households: len(in.Households),
		Brackets:   in.Brackets,
	}
	for _, c := range Checks() {
		res := c.Run(in)
		res.ID = c.ID
		res.Name = c.Name
		if res.Status == "" {
			res.Status = StatusPass
			if res.IssueCount > 0 {
				res.Status = c.Severity
			}
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (in *Input) maxExamples() int {
	if in.MaxExamples > 0 {
		return in.MaxExamples
	}
	return DefaultMaxExamples
}

// rowCheck builds a check that flags every household for which issue returns
// a non-empty description.
func rowCheck(issue func(core.Household) string) func(*Input) Result {
	return func(in *Input) Result {
		var res Result
		limit := in.maxExamples()
		for _, h := range in.Households {
			msg := issue(h)
			if msg == "" {
				continue
			}
			res.IssueCount++
			if len(res.Examples) < limit {
				res.Examples = append(res.Examples, msg)
			}
		}
		if res.IssueCount > 0 {
			res.Message = fmt.Sprintf("%d of %d households", res.IssueCount, len(in.Households))
		}
		return res
	}
}

func peakStats(in *Input) (loader.BracketStats, bool) {
	for _, b := range in.Brackets {
		if b.Bracket.Name == core.PeakBracket {
			return b, b.Count > 0
		}
	}
	return loader.BracketStats{}, false
}

func checkPeakBracket(in *Input) Result {
	peak, ok := peakStats(in)
	if !ok {
		return Result{Status: StatusSkip, Message: fmt.Sprintf("no households in a %q bracket", core.PeakBracket)}
	}

	var res Result
	for _, b := range in.Brackets {
		if b.Bracket.Name == core.PeakBracket || b.Count == 0 {
			continue
		}
		if b.MeanNetWorth > peak.MeanNetWorth {
			res.IssueCount++
			res.Examples = append(res.Examples, fmt.Sprintf("%s mean %.2f exceeds %s mean %.2f",
				b.Bracket, b.MeanNetWorth, peak.Bracket, peak.MeanNetWorth))
		}
	}
	if res.IssueCount == 0 {
		res.Message = fmt.Sprintf("%s mean %.2f", peak.Bracket, peak.MeanNetWorth)
	}
	return res
}

func checkPeakBand(in *Input) Result {
	if in.PeakBand.IsZero() {
		return Result{Status: StatusSkip, Message: "no peak_band configured"}
	}
	peak, ok := peakStats(in)
	if !ok {
		return Result{Status: StatusSkip, Message: fmt.Sprintf("no households in a %q bracket", core.PeakBracket)}
	}

	msg := fmt.Sprintf("mean %.2f, band %.2f-%.2f", peak.MeanNetWorth, in.PeakBand.Min, in.PeakBand.Max)
	if in.PeakBand.Contains(peak.MeanNetWorth) {
		return Result{Message: msg}
	}
	return Result{IssueCount: 1, Message: msg}
}
