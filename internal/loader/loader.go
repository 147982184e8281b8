// Package loader reads household datasets into memory.
//
// The CSV is ingested by DuckDB (schema inferred by read_csv_auto), which
// also serves the grouped aggregations used by describe and validate.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/leapstack-labs/households/internal/adapter"
	"github.com/leapstack-labs/households/pkg/core"
)

// TableName is the DuckDB table the dataset is loaded into.
const TableName = "households"

// Loader owns a DuckDB connection holding one loaded dataset.
type Loader struct {
	db     adapter.Adapter
	logger *slog.Logger
	path   string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithAdapter supplies an already connected adapter instead of an in-memory DuckDB.
func WithAdapter(a adapter.Adapter) Option {
	return func(ld *Loader) { ld.db = a }
}

// New creates a Loader backed by an in-memory DuckDB unless WithAdapter is given.
func New(ctx context.Context, opts ...Option) (*Loader, error) {
	l := &Loader{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(l)
	}
	if l.db == nil {
		db, err := adapter.OpenMemory(ctx)
		if err != nil {
			return nil, err
		}
		l.db = db
	}
	return l, nil
}

// Close releases the underlying database.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Adapter exposes the database holding the loaded table.
func (l *Loader) Adapter() adapter.Adapter {
	return l.db
}

// Path returns the path of the loaded dataset, or "" before Load.
func (l *Loader) Path() string {
	return l.path
}

// Load ingests the CSV at path and checks that the required columns exist.
func (l *Loader) Load(ctx context.Context, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", core.ErrNoHouseholds, path)
	}

	l.logger.Debug("loading dataset", slog.String("path", path))
	if err := l.db.LoadCSV(ctx, TableName, path); err != nil {
		return err
	}

	info, err := l.db.Describe(ctx, TableName)
	if err != nil {
		return err
	}
	if missing := info.Missing(core.RequiredColumns); len(missing) > 0 {
		return fmt.Errorf("%w: [%s]", core.ErrMissingColumns, strings.Join(missing, ", "))
	}

	l.logger.Debug("dataset loaded",
		slog.String("path", path),
		slog.Int64("rows", info.Rows),
		slog.Int("columns", len(info.Columns)))
	l.path = path
	return nil
}

const selectHouseholds = `
	SELECT
		household_id,
		TRY_CAST(age AS DOUBLE),
		TRY_CAST(dependents AS DOUBLE),
		TRY_CAST(net_worth AS DOUBLE)
	FROM households
	ORDER BY household_id
`

// Households returns every loaded row. Cells that are missing, non-numeric or
// fractional where an integer is expected are collected into a
// *core.ValidationError. Range checks are left to the validate package.
func (l *Loader) Households(ctx context.Context) ([]core.Household, error) {
	rows, err := l.db.Query(ctx, selectHouseholds)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		households []core.Household
		bad        []core.RecordError
	)
	for rows.Next() {
		var id int64
		var age, deps, worth sql.NullFloat64
		if err := rows.Scan(&id, &age, &deps, &worth); err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}

		h := core.Household{ID: id}
		var ok bool
		if h.Age, ok = wholeNumber(age); !ok {
			bad = append(bad, core.RecordError{Row: id, Column: core.ColumnAge, Reason: "not an integer"})
		}
		if h.Dependents, ok = wholeNumber(deps); !ok {
			bad = append(bad, core.RecordError{Row: id, Column: core.ColumnDependents, Reason: "not an integer"})
		}
		if !worth.Valid {
			bad = append(bad, core.RecordError{Row: id, Column: core.ColumnNetWorth, Reason: "not a number"})
		} else {
			h.NetWorth = worth.Float64
		}
		households = append(households, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating households: %w", err)
	}

	if len(bad) > 0 {
		return nil, &core.ValidationError{Records: bad}
	}
	if len(households) == 0 {
		return nil, core.ErrNoHouseholds
	}
	return households, nil
}

// maxWholeNumber is the largest magnitude a float64 holds without losing
// integer precision.
const maxWholeNumber = 1 << 53

func wholeNumber(v sql.NullFloat64) (int64, bool) {
	if !v.Valid || math.IsInf(v.Float64, 0) || v.Float64 != math.Trunc(v.Float64) {
		return 0, false
	}
	if math.Abs(v.Float64) > maxWholeNumber {
		return 0, false
	}
	return int64(v.Float64), true
}

// LoadFile is a convenience that loads path into a fresh in-memory loader,
// reads every household and closes the loader.
func LoadFile(ctx context.Context, path string, opts ...Option) ([]core.Household, error) {
	l, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()

	if err := l.Load(ctx, path); err != nil {
		return nil, err
	}
	hs, err := l.Households(ctx)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hs, err
}
