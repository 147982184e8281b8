package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "households> "
	replContPrompt = "       ...> "
	replHistory    = ".households_query_history"
)

// replShortcuts are canned queries over the run tables, keyed by dot-command.
var replShortcuts = map[string]string{
	".runs": `SELECT substr(run_id, 1, 8) AS run, started_at, status, households,
	recipients, contributors, total_transferred, c_bar
FROM v_run_transfers ORDER BY started_at DESC LIMIT 20`,
	".latest": `SELECT household_id, age, dependents, net_worth, transfer,
	net_worth_after_redistribution
FROM allocations
WHERE run_id = (SELECT id FROM runs WHERE status = 'completed' ORDER BY started_at DESC LIMIT 1)
ORDER BY household_id LIMIT 20`,
	".brackets": `SELECT (age / 10) * 10 AS decade, COUNT(*) AS households,
	AVG(net_worth) AS avg_net_worth, AVG(transfer) AS avg_transfer
FROM allocations
WHERE run_id = (SELECT id FROM runs WHERE status = 'completed' ORDER BY started_at DESC LIMIT 1)
GROUP BY decade ORDER BY decade`,
}

var replFormats = []string{"table", "json", "csv", "md"}

// replSession is one interactive query session. It is independent of the
// terminal so the statement handling can be driven line by line.
type replSession struct {
	db     *sql.DB
	out    io.Writer
	errOut io.Writer
	format string
	buf    strings.Builder
}

// feed consumes one input line. It returns the prompt to show next and
// whether the session should end.
func (s *replSession) feed(ctx context.Context, line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return s.prompt(), false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return replPrompt, s.dot(ctx, line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteByte('\n')
		return replContPrompt, false
	}

	query := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()
	s.report(s.query(ctx, query))
	_, _ = fmt.Fprintln(s.out)
	return replPrompt, false
}

// reset drops a partially typed statement.
func (s *replSession) reset() {
	s.buf.Reset()
}

func (s *replSession) prompt() string {
	if s.buf.Len() > 0 {
		return replContPrompt
	}
	return replPrompt
}

func (s *replSession) query(ctx context.Context, query string) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(s.out, rows, s.format)
}

func (s *replSession) report(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
}

// dot runs a dot-command and reports whether it ends the session.
func (s *replSession) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])

	if q, ok := replShortcuts[name]; ok {
		s.report(s.query(ctx, q))
		return false
	}

	switch name {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.out)
	case ".tables":
		s.report(listTablesFromDB(ctx, s.out, s.db, s.format, false))
	case ".views":
		s.report(listTablesFromDB(ctx, s.out, s.db, s.format, true))
	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .schema <table>")
			return false
		}
		s.report(showSchemaFromDB(ctx, s.out, s.db, parts[1], s.format))
	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "format: %s\n", s.format)
			return false
		}
		f := strings.ToLower(parts[1])
		if !isREPLFormat(f) {
			_, _ = fmt.Fprintf(s.errOut, "Unknown format %q (one of %s)\n", f, strings.Join(replFormats, ", "))
			return false
		}
		s.format = f
	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", name)
	}
	return false
}

func isREPLFormat(f string) bool {
	for _, known := range replFormats {
		if f == known {
			return true
		}
	}
	return false
}

func runQueryREPL(cmd *cobra.Command, statePath string, opts *QueryOptions) error {
	ctx := cmd.Context()

	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(statePath), replHistory),
		AutoComplete:    newREPLCompleter(ctx, db),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &replSession{db: db, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), format: opts.Format}
	_, _ = fmt.Fprintf(s.out, "households query (state: %s)\n", statePath)
	_, _ = fmt.Fprintln(s.out, "Type .runs for recent runs, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if err != nil {
			return nil
		}

		prompt, quit := s.feed(ctx, line)
		if quit {
			return nil
		}
		rl.SetPrompt(prompt)
	}
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `
Runs:
  .runs             Recent runs with recipient and contributor counts
  .latest           First allocations of the latest completed run
  .brackets         Latest run grouped by age decade

Database:
  .tables           List all tables and views
  .views            List views only
  .schema <name>    Show schema for a table or view

Session:
  .format [fmt]     Show or set the output format (table, json, csv, md)
  .help             Show this help message
  .quit / .exit     Exit

SQL statements end with a semicolon and may span several lines.
The database is opened read-only.

`)
}

// newREPLCompleter completes dot-commands and the table and column names of
// the state database.
func newREPLCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".format", pcItems(replFormats)...),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for name := range replShortcuts {
		items = append(items, readline.PcItem(name))
	}

	names, err := schemaNames(ctx, db)
	if err != nil {
		return readline.NewPrefixCompleter(items...)
	}
	items = append(items, readline.PcItem(".schema", pcItems(names)...))
	items = append(items, pcItems(names)...)
	return readline.NewPrefixCompleter(items...)
}

func pcItems(names []string) []readline.PrefixCompleterInterface {
	out := make([]readline.PrefixCompleterInterface, len(names))
	for i, n := range names {
		out[i] = readline.PcItem(n)
	}
	return out
}

// schemaNames returns table, view and column names, sorted and unique.
func schemaNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT name FROM (
			SELECT m.name FROM sqlite_master m
			WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%' AND m.name NOT LIKE 'goose_%'
			UNION
			SELECT c.name FROM sqlite_master m, pragma_table_info(m.name) c
			WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%' AND m.name NOT LIKE 'goose_%'
		)
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
