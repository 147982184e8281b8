// Package config provides the project configuration shared by the CLI
// commands. It is decoupled from flag handling so `init` can write the same
// document the loader reads.
package config

import "github.com/leapstack-labs/households/pkg/core"

// ProjectConfig is the content of households.yaml.
type ProjectConfig struct {
	DataFile     string `koanf:"data_file" yaml:"data_file"`
	OutputFile   string `koanf:"output_file" yaml:"output_file"`
	ExportFormat string `koanf:"export_format" yaml:"export_format,omitempty"`
	StatePath    string `koanf:"state_path" yaml:"state_path"`

	MaxLifeExpectancy int64   `koanf:"max_life_expectancy" yaml:"max_life_expectancy"`
	DependentWeight   float64 `koanf:"dependent_weight" yaml:"dependent_weight"`

	SampleSize int  `koanf:"sample_size" yaml:"sample_size"`
	Record     bool `koanf:"record" yaml:"record"`

	Brackets []core.Bracket `koanf:"brackets" yaml:"brackets"`
	PeakBand core.Band      `koanf:"peak_band" yaml:"peak_band,omitempty"`
}

// Parameters returns the model parameters.
func (c *ProjectConfig) Parameters() core.Parameters {
	return core.Parameters{
		MaxLifeExpectancy: c.MaxLifeExpectancy,
		DependentWeight:   c.DependentWeight,
	}
}
