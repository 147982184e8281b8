package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/households/internal/cli"
	"github.com/leapstack-labs/households/internal/cli/config"
	sharedcfg "github.com/leapstack-labs/households/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// documented reports whether a command gets its own page.
func documented(cmd *cobra.Command) bool {
	return !cmd.Hidden && cmd.Name() != "help" && cmd.Name() != "__complete"
}

// pageName is the page file name for a command: its path below the root
// joined with dashes, e.g. "history-show".
func pageName(cmd *cobra.Command) string {
	path := strings.Fields(cmd.CommandPath())
	if len(path) <= 1 {
		return "index"
	}
	return strings.Join(path[1:], "-")
}

func pageLink(cmd *cobra.Command) string {
	return fmt.Sprintf("[%s](/cli/%s)", InlineCode(strings.TrimPrefix(cmd.CommandPath(), "households ")), pageName(cmd))
}

// generateCLIDocs writes an index page plus one page per command and
// subcommand.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index": cliIndex(root)}

	var walk func(*cobra.Command)
	walk = func(parent *cobra.Command) {
		for _, cmd := range parent.Commands() {
			if !documented(cmd) {
				continue
			}
			pages[pageName(cmd)] = commandPage(cmd)
			walk(cmd)
		}
	}
	walk(root)

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(outDir, name+".md"), pages[name], 0o600); err != nil {
			return fmt.Errorf("failed to write %s.md: %w", name, err)
		}
		log.Printf("  Generated %s.md", name)
	}
	return nil
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for households")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/households/cmd/households@latest\nhouseholds <command> [flags]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range root.Commands() {
		if !documented(cmd) {
			continue
		}
		rows = append(rows, []string{pageLink(cmd), cleanDescription(cmd.Short)})
		for _, sub := range cmd.Commands() {
			if documented(sub) {
				rows = append(rows, []string{pageLink(sub), cleanDescription(sub.Short)})
			}
		}
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Flags")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Configuration Precedence")
	w.Paragraph(fmt.Sprintf("Settings are resolved from built-in defaults, then %s, then %s environment variables, "+
		"then flags given on the command line. Flags left at their default never override a configured value.",
		InlineCode(sharedcfg.ConfigFileName), InlineCode(config.EnvPrefix+"*")))

	keys := make([]string, 0, len(sharedcfg.Defaults()))
	for key := range sharedcfg.Defaults() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var envRows [][]string
	for _, key := range keys {
		envRows = append(envRows, []string{InlineCode(key), InlineCode(envVar(key))})
	}
	w.Table([]string{"Key", "Variable"}, envRows)

	w.Header(2, "Exit Status")
	w.BulletList([]string{
		InlineCode("0") + " the command succeeded",
		InlineCode("1") + " the command failed, including validate finding data-quality problems",
	})

	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.CommandPath(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.CommandPath())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	usage := cmd.UseLine()
	if cmd.HasAvailableSubCommands() && !cmd.Runnable() {
		usage = cmd.CommandPath() + " <subcommand> [flags]"
	}
	w.CodeBlock("bash", usage)

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.Paragraph("Aliases: " + strings.Join(aliases, ", "))
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Flags")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Flags")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	var related []string
	if cmd.HasParent() && cmd.Parent().HasParent() {
		related = append(related, pageLink(cmd.Parent()))
	}
	for _, sub := range cmd.Commands() {
		if documented(sub) {
			related = append(related, pageLink(sub)+" "+cleanDescription(sub.Short))
		}
	}
	if len(related) > 0 {
		w.Header(2, "See Also")
		w.BulletList(related)
	}

	return w.Bytes()
}

// writeFlagsTable lists flags with the config key each one overrides.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", " + name
		}
		def := ""
		if f.DefValue != "" && f.DefValue != "[]" {
			def = InlineCode(f.DefValue)
		}
		key := ""
		if k, ok := config.FlagKey(f); ok {
			key = InlineCode(k)
		}
		rows = append(rows, []string{InlineCode(name), def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Config key", "Description"}, rows)
}

// cleanExample strips the indentation shared by all non-blank lines.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
