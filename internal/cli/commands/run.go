package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/export"
	"github.com/leapstack-labs/households/internal/model"
	"github.com/leapstack-labs/households/internal/state"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Watch bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Redistribute household wealth and export the results",
		Long: `Redistribute the combined net worth of every household so that each one
consumes the same amount per equivalent-adult-year over its remaining life.

The run loads the dataset, solves the model, verifies that allocations add up
to the total wealth and that transfers balance, prints a report, exports the
per-household results and records the run in the state database.`,
		Example: `  # Run with the project configuration
  households run

  # Use a different dataset and weight dependents at 50%
  households run --data survey.csv --dependent-weight 0.5

  # Export Parquet without recording the run
  households run --out results.parquet --no-record

  # Re-run whenever the dataset changes
  households run --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().String("out", "", "Path of the exported results")
	cmd.Flags().String("format", "", "Export format: csv, json or parquet (default: from --out extension)")
	cmd.Flags().Int("sample", 0, "Number of households shown in the sample table")
	cmd.Flags().Int64("max-age", 0, "Age everyone is assumed to live to")
	cmd.Flags().Float64("dependent-weight", 0, "Extra needs added by each dependent")
	cmd.Flags().Bool("no-record", false, "Do not record the run in the state database")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-run when the dataset changes")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "json", "parquet"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	c, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if !opts.Watch {
		return executeRun(cmd.Context(), c)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchDataset(ctx, c, func(ctx context.Context) error {
		return executeRun(ctx, c)
	})
}

// RunOutput is the document printed by run.
type RunOutput struct {
	RunID             string          `json:"run_id,omitempty"`
	Dataset           string          `json:"dataset"`
	Parameters        core.Parameters `json:"parameters"`
	Households        int             `json:"households"`
	TotalResources    float64         `json:"total_resources"`
	TotalAdjustedLife float64         `json:"total_adjusted_life"`
	CBar              float64         `json:"c_bar"`
	MinAge            int64           `json:"min_age"`
	MaxAge            int64           `json:"max_age"`
	MeanNetWorth      float64         `json:"mean_net_worth"`
	Summary           model.Summary   `json:"summary"`
	Statistics        []model.Stats   `json:"statistics"`
	Sample            []export.Record `json:"sample"`
	OutputFile        string          `json:"output_file"`
	ExportFormat      export.Format   `json:"export_format"`
}

// executeRun performs one redistribution run. The run is recorded as failed
// when any later step, including the export, fails.
func executeRun(ctx context.Context, c *CommandContext) error {
	cfg := c.Cfg
	params := cfg.Parameters()

	format, err := export.ParseFormat(cfg.ExportFormat, cfg.OutputFile)
	if err != nil {
		return err
	}

	var (
		store *state.SQLiteStore
		run   *core.Run
	)
	if cfg.Record {
		store, err = c.OpenStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		run, err = store.CreateRun(cfg.DataFile, params)
		if err != nil {
			return err
		}
	}
	fail := func(err error) error {
		if run == nil {
			return err
		}
		if ferr := store.FailRun(run.ID, err.Error()); ferr != nil {
			c.Logger.Warn("failed to record run failure",
				slog.String("run_id", run.ID),
				slog.String("error", ferr.Error()))
		}
		return err
	}

	l, households, err := c.LoadHouseholds(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = l.Close() }()

	result, err := model.Solve(households, params)
	if err != nil {
		return fail(err)
	}
	if err := model.Check(result); err != nil {
		return fail(err)
	}
	c.Logger.Debug("model solved",
		slog.Int("households", len(households)),
		slog.Float64("c_bar", result.CBar))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exp := export.New(export.WithLogger(c.Logger), export.WithAdapter(l.Adapter()))
		return exp.Export(gctx, cfg.OutputFile, format, result.Allocations)
	})
	if run != nil {
		g.Go(func() error {
			if err := store.SaveAllocations(run.ID, result.Allocations); err != nil {
				return err
			}
			return store.CompleteRun(run.ID, result.Totals())
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	out := newRunOutput(cfg.DataFile, result, cfg.SampleSize)
	out.OutputFile = cfg.OutputFile
	out.ExportFormat = format
	if run != nil {
		out.RunID = run.ID
		c.Logger.Info("run recorded", slog.String("run_id", run.ID))
	}

	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	renderRun(r, out)
	return nil
}

func newRunOutput(dataset string, result *model.Result, sampleSize int) *RunOutput {
	out := &RunOutput{
		Dataset:           dataset,
		Parameters:        result.Parameters,
		Households:        len(result.Allocations),
		TotalResources:    result.TotalResources,
		TotalAdjustedLife: result.TotalAdjustedLife,
		CBar:              result.CBar,
		Summary:           model.Summarize(result),
		Statistics:        model.DescribeResult(result),
		Sample:            []export.Record{},
	}
	if out.Households > 0 {
		out.MeanNetWorth = result.TotalResources / float64(out.Households)
		out.MinAge, out.MaxAge = result.Allocations[0].Age, result.Allocations[0].Age
	}
	for i, a := range result.Allocations {
		out.MinAge = min(out.MinAge, a.Age)
		out.MaxAge = max(out.MaxAge, a.Age)
		if i < sampleSize {
			out.Sample = append(out.Sample, export.NewRecord(a))
		}
	}
	return out
}

func renderRun(r *output.Renderer, out *RunOutput) {
	r.Header(1, "Wealth Redistribution Results")
	r.KeyValue("Dataset", out.Dataset)
	r.KeyValue("Households", output.FormatCount(int64(out.Households)))
	r.KeyValue("Total wealth", output.FormatMoney(out.TotalResources))
	r.KeyValue("Age range", fmt.Sprintf("%d to %d", out.MinAge, out.MaxAge))
	r.KeyValue("Average net worth", output.FormatMoney(out.MeanNetWorth))
	r.KeyValue("Consumption per equivalent-adult-year", output.FormatMoneyCents(out.CBar))
	r.KeyValue("Equivalent-adult-years", output.FormatNumber(out.TotalAdjustedLife, 1))
	r.Println()
	r.Success("All consistency checks passed")
	r.Println()

	if len(out.Sample) > 0 {
		r.Header(2, fmt.Sprintf("Sample of %d households", len(out.Sample)))
		r.Table(sampleTable(out.Sample))
		r.Println()
	}

	r.Header(2, "Aggregate Statistics")
	r.Table(describeTable(out.Statistics))
	r.Println()

	r.Header(2, "Redistribution Summary")
	renderSide(r, "Recipients", out.Summary.Recipients)
	renderSide(r, "Contributors", out.Summary.Contributors)
	if out.Summary.Unchanged > 0 {
		r.KeyValue("Unchanged", output.FormatCount(int64(out.Summary.Unchanged)))
	}
	mu := out.Summary.Utility
	r.KeyValue("Marginal utility", fmt.Sprintf("%.6g (std %.3g)", mu.Min, mu.StdDev))
	r.Println()

	r.Header(2, "Key Insights")
	for _, line := range keyInsights(out.Summary) {
		r.Println("- " + line)
	}
	r.Println()

	r.Success(fmt.Sprintf("Results exported to %s (%s, %d rows)", out.OutputFile, out.ExportFormat, out.Households))
	if out.RunID != "" {
		r.Muted("Recorded run " + out.RunID)
	}
}

func renderSide(r *output.Renderer, label string, s model.Side) {
	r.KeyValue(label, fmt.Sprintf("%s households, total %s, average %s",
		output.FormatCount(int64(s.Count)),
		output.FormatMoney(s.Total),
		output.FormatMoney(s.Mean)))
}

// keyInsights compares the households that receive transfers with those
// that contribute.
func keyInsights(s model.Summary) []string {
	rec, con := s.Recipients, s.Contributors
	if rec.Count == 0 || con.Count == 0 {
		return []string{"No transfers: every household already holds its target allocation."}
	}

	lines := []string{
		fmt.Sprintf("Recipients: mean age %.1f, %.2f dependents, net worth %s",
			rec.MeanAge, rec.MeanDependents, output.FormatMoney(rec.MeanNetWorth)),
		fmt.Sprintf("Contributors: mean age %.1f, %.2f dependents, net worth %s",
			con.MeanAge, con.MeanDependents, output.FormatMoney(con.MeanNetWorth)),
	}
	if rec.MeanAge < con.MeanAge {
		lines = append(lines, "Recipients are younger and have more years to consume")
	}
	if rec.MeanDependents > con.MeanDependents {
		lines = append(lines, "Recipients support more dependents and have higher needs")
	}
	if rec.MeanNetWorth < con.MeanNetWorth {
		lines = append(lines, "Recipients hold less wealth than contributors")
	}
	return lines
}

// sampleColumns are the columns of the sample table.
var sampleColumns = []string{
	"household_id", "age", "dependents", "L", "phi", "net_worth",
	"net_worth_after_redistribution", "transfer", "annual_consumption", "target_lifetime_consumption",
}

func sampleTable(records []export.Record) output.Table {
	t := output.Table{Header: sampleColumns, RightAlign: make([]bool, len(sampleColumns))}
	for i := range t.RightAlign {
		t.RightAlign[i] = true
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(rec.HouseholdID, 10),
			strconv.FormatInt(rec.Age, 10),
			strconv.FormatInt(rec.Dependents, 10),
			output.FormatNumber(rec.L, 0),
			output.FormatNumber(rec.Phi, 2),
			output.FormatMoney(rec.NetWorth),
			output.FormatMoney(rec.NetWorthAfterRedistribution),
			output.FormatMoney(rec.Transfer),
			output.FormatMoney(rec.AnnualConsumption),
			output.FormatMoney(rec.TargetLifetimeConsumption),
		})
	}
	return t
}

// describeTable lays statistics out with one column per variable.
func describeTable(stats []model.Stats) output.Table {
	header := []string{""}
	for _, s := range stats {
		header = append(header, s.Name)
	}
	t := output.Table{Header: header, RightAlign: make([]bool, len(header))}
	for i := 1; i < len(header); i++ {
		t.RightAlign[i] = true
	}

	rows := []struct {
		label string
		value func(model.Stats) float64
	}{
		{"mean", func(s model.Stats) float64 { return s.Mean }},
		{"std", func(s model.Stats) float64 { return s.StdDev }},
		{"min", func(s model.Stats) float64 { return s.Min }},
		{"25%", func(s model.Stats) float64 { return s.P25 }},
		{"50%", func(s model.Stats) float64 { return s.Median }},
		{"75%", func(s model.Stats) float64 { return s.P75 }},
		{"max", func(s model.Stats) float64 { return s.Max }},
	}

	count := []string{"count"}
	for _, s := range stats {
		count = append(count, output.FormatCount(int64(s.Count)))
	}
	t.Rows = append(t.Rows, count)
	for _, row := range rows {
		cells := []string{row.label}
		for _, s := range stats {
			cells = append(cells, output.FormatNumber(row.value(s), 2))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
