// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// HouseholdsCSV is a small dataset following the life-cycle wealth shape:
// low at the start, rising through working age, peaking at 55-65.
const HouseholdsCSV = `age,dependents,net_worth
22,0,-5000
24,1,3000
35,2,80000
45,3,150000
58,1,900000
62,0,1100000
70,0,450000
85,0,200000
`

// HouseholdCount is the number of rows in HouseholdsCSV.
const HouseholdCount = 8

// ProjectConfig is the households.yaml written by SetupTestProject.
const ProjectConfig = `data_file: data/household_data.csv
output_file: out/redistribution_results.csv
state_path: .households/state.db
sample_size: 5
`

// SetupTestProject creates a temporary project with a config file and a
// household dataset. Returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "data"), 0o755); err != nil {
		t.Fatalf("failed to create data directory: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "households.yaml"),
		[]byte(ProjectConfig), 0o644); err != nil {
		t.Fatalf("failed to create households.yaml: %v", err)
	}

	WriteDataset(t, filepath.Join(tmpDir, "data", "household_data.csv"), HouseholdsCSV)

	return tmpDir
}

// WriteDataset writes a CSV dataset to path.
func WriteDataset(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset %s: %v", path, err)
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks rendered markdown for unclosed code fences,
// empty headers and tables whose rows disagree on the column count.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	cols := 0
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
		if !strings.HasPrefix(trimmed, "|") {
			cols = 0
			continue
		}
		n := strings.Count(strings.ReplaceAll(trimmed, `\|`, ""), "|")
		if cols == 0 {
			cols = n
		} else if n != cols {
			t.Errorf("table row at line %d has %d separators, header has %d", i+1, n, cols)
		}
	}
}
