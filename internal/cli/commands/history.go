package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/export"
	"github.com/leapstack-labs/households/internal/model"
	"github.com/leapstack-labs/households/internal/state"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/spf13/cobra"
)

// latestRun is the run ID alias for the most recent run.
const latestRun = "latest"

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded redistribution runs",
		Long: `List the runs recorded in the state database, newest first.

Use 'history show <run-id>' to inspect a single run and its allocations.`,
		Example: `  households history
  households history --limit 5 -o json
  households history show latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			r := c.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				if runs == nil {
					runs = []*core.Run{}
				}
				return r.JSON(runs)
			}

			r.Header(1, "Run History")
			if len(runs) == 0 {
				r.Muted("No runs recorded yet")
				return nil
			}
			r.Table(runsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

// RunDetail is the document printed by history show.
type RunDetail struct {
	*core.Run
	Summary     *model.Summary  `json:"summary,omitempty"`
	Allocations []export.Record `json:"allocations"`
}

func newHistoryShowCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Long:  `Show the parameters, totals and allocations of a recorded run. Use "latest" for the most recent run.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := findRun(store, args[0])
			if err != nil {
				return err
			}

			allocs, err := store.GetAllocations(run.ID)
			if err != nil {
				return err
			}

			detail := &RunDetail{Run: run, Allocations: []export.Record{}}
			if len(allocs) > 0 {
				s := model.Summarize(&model.Result{Allocations: allocs})
				detail.Summary = &s
			}
			for i, a := range allocs {
				if rows > 0 && i >= rows {
					break
				}
				detail.Allocations = append(detail.Allocations, export.NewRecord(a))
			}

			r := c.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(detail)
			}
			renderRunDetail(r, detail, len(allocs))
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10, "Allocations to show (0 for all)")

	return cmd
}

// findRun resolves "latest", a full run ID or a unique ID prefix as shown by
// the history table.
func findRun(store *state.SQLiteStore, ref string) (*core.Run, error) {
	if ref == latestRun {
		run, err := store.LatestRun()
		if err == nil && run == nil {
			return nil, fmt.Errorf("no runs recorded yet")
		}
		return run, err
	}

	run, err := store.GetRun(ref)
	if !errors.Is(err, core.ErrRunNotFound) {
		return run, err
	}
	runs, lerr := store.ListRuns(0)
	if lerr != nil {
		return nil, lerr
	}
	var match *core.Run
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run prefix %q is ambiguous", ref)
		}
		match = r
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func renderRunDetail(r *output.Renderer, d *RunDetail, total int) {
	r.Header(1, "Run "+d.ID)
	r.StatusLine("Status", string(d.Status), "")
	r.KeyValue("Dataset", d.Dataset)
	r.KeyValue("Started", d.StartedAt.Local().Format(time.DateTime))
	if d.CompletedAt != nil {
		r.KeyValue("Duration", d.CompletedAt.Sub(d.StartedAt).Round(time.Millisecond).String())
	}
	r.KeyValue("Max life expectancy", fmt.Sprintf("%d", d.Parameters.MaxLifeExpectancy))
	r.KeyValue("Dependent weight", fmt.Sprintf("%g", d.Parameters.DependentWeight))
	if d.Error != "" {
		r.KeyValue("Error", d.Error)
	}
	if d.Status != core.RunStatusCompleted {
		return
	}

	r.KeyValue("Households", output.FormatCount(int64(d.NumHouseholds)))
	r.KeyValue("Total wealth", output.FormatMoney(d.TotalResources))
	r.KeyValue("Consumption per equivalent-adult-year", output.FormatMoneyCents(d.CBar))
	r.Println()

	if d.Summary != nil {
		r.Header(2, "Redistribution Summary")
		renderSide(r, "Recipients", d.Summary.Recipients)
		renderSide(r, "Contributors", d.Summary.Contributors)
		r.Println()
	}

	if len(d.Allocations) > 0 {
		r.Header(2, fmt.Sprintf("Allocations (%d of %d)", len(d.Allocations), total))
		r.Table(sampleTable(d.Allocations))
	}
}

func runsTable(runs []*core.Run) output.Table {
	t := output.Table{
		Header:     []string{"run", "started", "status", "households", "c_bar", "dataset"},
		RightAlign: []bool{false, false, false, true, true, false},
	}
	for _, run := range runs {
		households, cbar := "-", "-"
		if run.Status == core.RunStatusCompleted {
			households = output.FormatCount(int64(run.NumHouseholds))
			cbar = output.FormatMoneyCents(run.CBar)
		}
		t.Rows = append(t.Rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			households,
			cbar,
			run.Dataset,
		})
	}
	return t
}

// shortID abbreviates a run ID for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
