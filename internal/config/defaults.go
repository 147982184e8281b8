package config

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/households/pkg/core"
)

// Default configuration values.
const (
	DefaultDataFile     = "data/household_data.csv"
	DefaultOutputFile   = "data/redistribution_results.csv"
	DefaultExportFormat = ""
	DefaultStateFile    = ".households/state.db"
	DefaultSampleSize   = 10
	DefaultRecord       = true
)

// Defaults returns the default configuration as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"data_file":           DefaultDataFile,
		"output_file":         DefaultOutputFile,
		"export_format":       DefaultExportFormat,
		"state_path":          DefaultStateFile,
		"max_life_expectancy": core.DefaultMaxLifeExpectancy,
		"dependent_weight":    core.DefaultDependentWeight,
		"sample_size":         DefaultSampleSize,
		"record":              DefaultRecord,
		"brackets":            core.DefaultBrackets(),
	}
}

// LoadDefaults loads Defaults into k.
func LoadDefaults(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(Defaults(), "."), nil)
}

// Default returns a ProjectConfig holding every default value.
func Default() *ProjectConfig {
	return &ProjectConfig{
		DataFile:          DefaultDataFile,
		OutputFile:        DefaultOutputFile,
		ExportFormat:      DefaultExportFormat,
		StatePath:         DefaultStateFile,
		MaxLifeExpectancy: core.DefaultMaxLifeExpectancy,
		DependentWeight:   core.DefaultDependentWeight,
		SampleSize:        DefaultSampleSize,
		Record:            DefaultRecord,
		Brackets:          core.DefaultBrackets(),
	}
}
