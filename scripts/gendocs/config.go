package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/households/internal/cli/config"
	sharedcfg "github.com/leapstack-labs/households/internal/config"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Description string
	Category    string // "files", "model", "output"
}

// configFields lists every households.yaml key. Defaults are read from
// internal/config so they cannot drift.
var configFields = []ConfigField{
	{Name: "data_file", Type: "string", Description: "CSV dataset with age, dependents and net_worth columns", Category: "files"},
	{Name: "output_file", Type: "string", Description: "Where run exports the per-household results", Category: "files"},
	{Name: "export_format", Type: "string", Description: "csv, json or parquet; empty infers it from output_file", Category: "files"},
	{Name: "state_path", Type: "string", Description: "SQLite database recording runs", Category: "files"},

	{Name: "max_life_expectancy", Type: "int", Description: "Age everyone is assumed to live to", Category: "model"},
	{Name: "dependent_weight", Type: "float", Description: "Extra needs added by each dependent", Category: "model"},
	{Name: "brackets", Type: "list", Description: "Age brackets used by describe and validate", Category: "model"},
	{Name: "peak_band", Type: "object", Description: "Expected {min, max} mean net worth of the peak bracket", Category: "model"},

	{Name: "sample_size", Type: "int", Description: "Households shown in the run sample table", Category: "output"},
	{Name: "record", Type: "bool", Description: "Record runs in the state database", Category: "output"},
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "households configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("households is configured via %s in your project root. "+
		"Relative paths are resolved against the directory holding the file.", InlineCode(sharedcfg.ConfigFileName)))

	defaults := sharedcfg.Defaults()
	sections := []struct{ category, title string }{
		{"files", "Files"},
		{"model", "Model"},
		{"output", "Output"},
	}
	headers := []string{"Field", "Type", "Default", "Environment", "Description"}
	for _, sec := range sections {
		var rows [][]string
		for _, f := range configFields {
			if f.Category != sec.category {
				continue
			}
			rows = append(rows, []string{
				InlineCode(f.Name),
				f.Type,
				formatDefault(defaults[f.Name]),
				InlineCode(envVar(f.Name)),
				f.Description,
			})
		}
		w.Header(2, sec.title)
		w.Table(headers, rows)
	}

	content, err := sharedcfg.Marshal(sharedcfg.Default())
	if err != nil {
		return err
	}
	w.Header(2, "Default File")
	w.CodeBlock("yaml", string(content))

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}

func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(key)
}

func formatDefault(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return InlineCode(v)
	case []any, map[string]any:
		return "see below"
	default:
		if s := fmt.Sprint(v); !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") {
			return InlineCode(s)
		}
		return "see below"
	}
}
