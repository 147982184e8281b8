// Package export writes redistribution results to disk.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/households/internal/adapter"
	"github.com/leapstack-labs/households/pkg/core"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatParquet}

// ParseFormat parses a format name. An empty name infers the format from the
// extension of path, falling back to CSV.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		switch Format(name) {
		case FormatJSON, FormatParquet:
			return Format(name), nil
		default:
			return FormatCSV, nil
		}
	}
	f := Format(strings.ToLower(name))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or parquet)", name)
}

// Columns are the exported columns, in file order.
var Columns = []string{
	"household_id",
	"age",
	"dependents",
	"net_worth",
	"net_worth_after_redistribution",
	"transfer",
	"L",
	"phi",
	"L_phi",
	"annual_consumption",
	"target_lifetime_consumption",
	"marginal_utility",
}

// Record is one exported row. Field order matches Columns.
type Record struct {
	HouseholdID                 int64   `json:"household_id"`
	Age                         int64   `json:"age"`
	Dependents                  int64   `json:"dependents"`
	NetWorth                    float64 `json:"net_worth"`
	NetWorthAfterRedistribution float64 `json:"net_worth_after_redistribution"`
	Transfer                    float64 `json:"transfer"`
	L                           float64 `json:"L"`
	Phi                         float64 `json:"phi"`
	LPhi                        float64 `json:"L_phi"`
	AnnualConsumption           float64 `json:"annual_consumption"`
	TargetLifetimeConsumption   float64 `json:"target_lifetime_consumption"`
	MarginalUtility             float64 `json:"marginal_utility"`
}

// NewRecord converts an allocation to an exported row.
func NewRecord(a core.Allocation) Record {
	return Record{
		HouseholdID:                 a.ID,
		Age:                         a.Age,
		Dependents:                  a.Dependents,
		NetWorth:                    a.NetWorth,
		NetWorthAfterRedistribution: a.NetWorthAfterRedistribution,
		Transfer:                    a.Transfer,
		L:                           a.RemainingYears,
		Phi:                         a.Phi,
		LPhi:                        a.LPhi,
		AnnualConsumption:           a.AnnualConsumption,
		TargetLifetimeConsumption:   a.TargetLifetimeConsumption,
		MarginalUtility:             a.MarginalUtility,
	}
}

// Values returns the row as SQL parameters in Columns order.
func (r Record) Values() []any {
	return []any{
		r.HouseholdID, r.Age, r.Dependents,
		r.NetWorth, r.NetWorthAfterRedistribution, r.Transfer,
		r.L, r.Phi, r.LPhi,
		r.AnnualConsumption, r.TargetLifetimeConsumption, r.MarginalUtility,
	}
}

func (r Record) strings() []string {
	return []string{
		strconv.FormatInt(r.HouseholdID, 10),
		strconv.FormatInt(r.Age, 10),
		strconv.FormatInt(r.Dependents, 10),
		formatFloat(r.NetWorth),
		formatFloat(r.NetWorthAfterRedistribution),
		formatFloat(r.Transfer),
		formatFloat(r.L),
		formatFloat(r.Phi),
		formatFloat(r.LPhi),
		formatFloat(r.AnnualConsumption),
		formatFloat(r.TargetLifetimeConsumption),
		formatFloat(r.MarginalUtility),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes allocations as CSV with a header row.
func WriteCSV(w io.Writer, allocs []core.Allocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, a := range allocs {
		if err := cw.Write(NewRecord(a).strings()); err != nil {
			return fmt.Errorf("failed to write household %d: %w", a.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes allocations as an indented JSON array of objects.
func WriteJSON(w io.Writer, allocs []core.Allocation) error {
	records := make([]Record, len(allocs))
	for i, a := range allocs {
		records[i] = NewRecord(a)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Exporter writes allocations to files.
type Exporter struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithAdapter sets the DuckDB adapter used for Parquet output. Without it a
// temporary in-memory database is opened per Parquet export.
func WithAdapter(a adapter.Adapter) Option {
	return func(e *Exporter) { e.db = a }
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes allocs to path in the given format, creating parent
// directories as needed.
func (e *Exporter) Export(ctx context.Context, path string, format Format, allocs []core.Allocation) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	e.logger.Debug("exporting results",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("rows", len(allocs)))

	switch format {
	case FormatCSV:
		return writeFile(path, func(w io.Writer) error { return WriteCSV(w, allocs) })
	case FormatJSON:
		return writeFile(path, func(w io.Writer) error { return WriteJSON(w, allocs) })
	case FormatParquet:
		return e.writeParquet(ctx, path, allocs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is user-provided output file
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

// resultsTable is the staging table used for Parquet output.
const resultsTable = "redistribution_results"

func createResultsTable() string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		typ := "DOUBLE"
		if i < 3 {
			typ = "BIGINT"
		}
		cols[i] = fmt.Sprintf("%q %s", c, typ)
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", resultsTable, strings.Join(cols, ", "))
}

func (e *Exporter) writeParquet(ctx context.Context, path string, allocs []core.Allocation) error {
	db := e.db
	if db == nil {
		mem, err := adapter.OpenMemory(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = mem.Close() }()
		db = mem
	}

	if err := db.Exec(ctx, createResultsTable()); err != nil {
		return fmt.Errorf("failed to stage results: %w", err)
	}
	defer func() { _ = db.Exec(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+resultsTable) }()

	rows := make([][]any, len(allocs))
	for i, a := range allocs {
		rows[i] = NewRecord(a).Values()
	}
	if err := db.InsertRows(ctx, resultsTable, Columns, rows); err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY household_id", resultsTable)
	return db.CopyTo(ctx, query, path, adapter.CopyParquet)
}
