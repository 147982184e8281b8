// Package config provides configuration management for the households CLI.
//
// It layers the project configuration from internal/config with
// CLI-only settings such as output mode and verbosity.
package config

import (
	sharedcfg "github.com/leapstack-labs/households/internal/config"
)

// ProjectConfig is an alias for the shared project configuration.
type ProjectConfig = sharedcfg.ProjectConfig

// Config holds all CLI configuration options.
type Config struct {
	ProjectConfig `koanf:",squash"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultDataFile   = sharedcfg.DefaultDataFile
	DefaultOutputFile = sharedcfg.DefaultOutputFile
	DefaultStateFile  = sharedcfg.DefaultStateFile
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// EnvPrefix is the prefix of environment variables read by the loader.
const EnvPrefix = "HOUSEHOLDS_"
