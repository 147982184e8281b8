package commands

import (
	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/loader"
	"github.com/leapstack-labs/households/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DescribeOutput is the document printed by describe.
type DescribeOutput struct {
	Dataset    string                `json:"dataset"`
	Households int                   `json:"households"`
	Statistics []model.Stats         `json:"statistics"`
	Brackets   []loader.BracketStats `json:"brackets"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe the household dataset",
		Long: `Print descriptive statistics of age, dependents and net worth, and
aggregate net worth by age bracket. Brackets come from the brackets setting
in households.yaml.`,
		Example: `  households describe
  households describe --data survey.csv -o markdown`,
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

			out := &DescribeOutput{
				Dataset:    c.Cfg.DataFile,
				Households: len(households),
				Statistics: model.DescribeHouseholds(households),
				Brackets:   brackets,
			}

			r := c.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(out)
			}

			r.Header(1, "Household Dataset")
			r.KeyValue("Dataset", out.Dataset)
			r.KeyValue("Households", output.FormatCount(int64(out.Households)))
			r.Println()

			r.Header(2, "Statistics")
			r.Table(describeTable(out.Statistics))
			r.Println()

			if len(out.Brackets) > 0 {
				r.Header(2, "Age Brackets")
				r.Table(bracketTable(out.Brackets))
			}
			return nil
		},
	}
}

func bracketTable(brackets []loader.BracketStats) output.Table {
	titleCaser := cases.Title(language.English)
	t := output.Table{
		Header:     []string{"bracket", "ages", "count", "mean net worth", "median", "min", "max", "mean dependents"},
		RightAlign: []bool{false, true, true, true, true, true, true, true},
	}
	for _, b := range brackets {
		row := []string{
			titleCaser.String(b.Bracket.Name),
			output.FormatCount(b.Bracket.MinAge) + "-" + output.FormatCount(b.Bracket.MaxAge),
			output.FormatCount(b.Count),
		}
		if b.Count == 0 {
			row = append(row, "-", "-", "-", "-", "-")
		} else {
			row = append(row,
				output.FormatMoney(b.MeanNetWorth),
				output.FormatMoney(b.MedianNetWorth),
				output.FormatMoney(b.MinNetWorth),
				output.FormatMoney(b.MaxNetWorth),
				output.FormatNumber(b.MeanDependents, 2),
			)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
