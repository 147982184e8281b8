package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/export"
	"github.com/leapstack-labs/households/pkg/core"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("data_file is required")
	}
	if err := c.Parameters().Validate(); err != nil {
		return err
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative, got %d", c.SampleSize)
	}
	if c.ExportFormat != "" {
		if _, err := export.ParseFormat(c.ExportFormat, ""); err != nil {
			return err
		}
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if err := core.ValidateBrackets(c.Brackets); err != nil {
		return fmt.Errorf("invalid brackets: %w", err)
	}
	if !c.PeakBand.IsZero() && c.PeakBand.Min > c.PeakBand.Max {
		return fmt.Errorf("peak_band min %g is greater than max %g", c.PeakBand.Min, c.PeakBand.Max)
	}
	return nil
}

// ValidateDataFile checks that the dataset exists.
func (c *Config) ValidateDataFile() error {
	if _, err := os.Stat(c.DataFile); err != nil {
		return fmt.Errorf("dataset not found: %s\nHint: use --data to point at a CSV with age, dependents and net_worth columns", c.DataFile)
	}
	return nil
}
