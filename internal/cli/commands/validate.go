package commands

import (
	"fmt"

	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/validate"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var maxExamples int

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run data-quality checks on the household dataset",
		Long: `Check the household dataset against its documented properties:

  - every age lies within 18-100
  - every household has 0-3 dependents
  - every net worth is a finite number
  - the peak bracket (55-65) holds the highest mean net worth
  - the peak bracket mean lies within peak_band, when configured

Range checks fail the command; trajectory checks only warn.`,
		Example: `  # Validate the configured dataset
  households validate

  # Validate another file and print JSON
  households validate --data survey.csv -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			l, households, err := c.LoadHouseholds(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			brackets, err := l.AgeBrackets(ctx, c.Cfg.Brackets)
			if err != nil {
				return err
			}

			report := validate.Run(&validate.Input{
				Households:  households,
				Brackets:    brackets,
				PeakBand:    c.Cfg.PeakBand,
				MaxExamples: maxExamples,
			})
			report.Dataset = c.Cfg.DataFile

			if c.Renderer.EffectiveMode() == output.ModeJSON {
				if err := c.Renderer.JSON(report); err != nil {
					return err
				}
			} else {
				renderValidation(c.Renderer, report)
			}

			if report.Failed() {
				return fmt.Errorf("%d of %d data-quality checks failed", report.Count(validate.StatusFail), len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxExamples, "examples", validate.DefaultMaxExamples, "Offending rows listed per check")

	return cmd
}

func renderValidation(r *output.Renderer, report *validate.Report) {
	r.Header(1, "Data Quality Report")
	r.KeyValue("Dataset", report.Dataset)
	r.KeyValue("Households", output.FormatCount(int64(report.Households)))
	r.Println()

	r.Header(2, "Checks")
	for _, res := range report.Results {
		r.StatusLine(fmt.Sprintf("%s: %s", res.ID, res.Name), string(res.Status), res.Message)
		for i, ex := range res.Examples {
			if i == len(res.Examples)-1 && res.IssueCount > len(res.Examples) {
				r.Muted(fmt.Sprintf("    - %s (and %d more)", ex, res.IssueCount-len(res.Examples)))
				continue
			}
			r.Muted("    - " + ex)
		}
	}
	r.Println()

	if len(report.Brackets) > 0 {
		r.Header(2, "Age Brackets")
		r.Table(bracketTable(report.Brackets))
		r.Println()
	}

	passed := report.Count(validate.StatusPass)
	summary := fmt.Sprintf("%d passed, %d warnings, %d failed, %d skipped",
		passed, report.Count(validate.StatusWarn), report.Count(validate.StatusFail), report.Count(validate.StatusSkip))
	switch {
	case report.Failed():
		r.Error(summary)
	case report.Count(validate.StatusWarn) > 0:
		r.Warning(summary)
	default:
		r.Success(summary)
	}
}
