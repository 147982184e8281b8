package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/leapstack-labs/households/internal/state"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNoSQL means the query command has nothing to execute and should start
// the REPL.
var errNoSQL = errors.New("no SQL given")

// openStateDBReadOnly opens the state database with writes disabled.
func openStateDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open(state.DriverName, state.ReadOnlyDSN(path))
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the state database",
		Long: `Run read-only SQL against the recorded runs and allocations.

The runs table holds one row per redistribution with its parameters and
totals; allocations holds the per-household results. The v_run_transfers
view counts recipients and contributors and sums the wealth moved per run.

SQL is taken from the arguments, from --input or from piped stdin. With none
of these on a terminal, an interactive session starts.`,
		Example: `  households query "SELECT * FROM v_run_transfers"
  households query "SELECT age, AVG(transfer) FROM allocations GROUP BY age" -f json
  households query -i report.sql -f csv > report.csv
  households query schema allocations
  households query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			statePath, err := existingStatePath(cmd)
			if err != nil {
				return err
			}
			stdin := cmd.InOrStdin()
			query, err := readSQL(args, opts.Input, stdin, stdinIsTerminal(stdin))
			if errors.Is(err, errNoSQL) {
				return runQueryREPL(cmd, statePath, opts)
			}
			if err != nil {
				return err
			}
			return withStateDB(cmd, statePath, func(db *sql.DB) error {
				rows, err := db.QueryContext(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("query failed: %w", err)
				}
				defer func() { _ = rows.Close() }()
				return renderResults(cmd.OutOrStdout(), rows, opts.Format)
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	_ = cmd.PersistentFlags().SetAnnotation("format", config.NotConfigAnnotation, []string{"true"})
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	subcommands := []struct {
		use, short string
		args       cobra.PositionalArgs
		run        func(cmd *cobra.Command, db *sql.DB, args []string) error
	}{
		{"tables", "List tables and views", cobra.NoArgs, func(cmd *cobra.Command, db *sql.DB, _ []string) error {
			return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format, false)
		}},
		{"views", "List views only", cobra.NoArgs, func(cmd *cobra.Command, db *sql.DB, _ []string) error {
			return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format, true)
		}},
		{"schema <table>", "Show the columns of a table or view", cobra.ExactArgs(1), func(cmd *cobra.Command, db *sql.DB, args []string) error {
			return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
		}},
	}
	for _, sc := range subcommands {
		run := sc.run
		cmd.AddCommand(&cobra.Command{
			Use:   sc.use,
			Short: sc.short,
			Args:  sc.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				statePath, err := existingStatePath(cmd)
				if err != nil {
					return err
				}
				return withStateDB(cmd, statePath, func(db *sql.DB) error {
					return run(cmd, db, args)
				})
			},
		})
	}

	return cmd
}

// readSQL picks the statement to run: arguments first, then the input file,
// then stdin unless it is a terminal.
func readSQL(args []string, inputFile string, stdin io.Reader, stdinTTY bool) (string, error) {
	var query string
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case inputFile != "":
		content, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		query = string(content)
	case !stdinTTY:
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(content)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if len(args) > 0 || inputFile != "" || !stdinTTY {
			return "", errors.New("empty SQL statement")
		}
		return "", errNoSQL
	}
	return query, nil
}

func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func withStateDB(cmd *cobra.Command, statePath string, fn func(*sql.DB) error) error {
	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

// existingStatePath returns the configured state database path, failing when
// no run has created it yet.
func existingStatePath(cmd *cobra.Command) (string, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return "", err
	}
	statePath := cfg.StatePath
	if statePath == "" {
		statePath = config.DefaultStateFile
	}
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return "", fmt.Errorf("state database not found at %s (run 'households run' first)", statePath)
	}
	return statePath, nil
}
