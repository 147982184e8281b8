package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/leapstack-labs/households/internal/loader"
	"github.com/leapstack-labs/households/internal/state"
	"github.com/leapstack-labs/households/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config the root command
// stored in the context. Commands executed on their own (as in tests) load
// the configuration from their flags instead.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	mode, _ := output.ParseMode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.FromContext(cmd.Context()); cfg != nil {
		return cfg, nil
	}
	cfgFile := ""
	if f := cmd.Flags().Lookup("config"); f != nil {
		cfgFile = f.Value.String()
	}
	return config.LoadConfig(cfgFile, cmd.Flags())
}

// LoadHouseholds opens a loader on the configured dataset. The caller closes it.
func (c *CommandContext) LoadHouseholds(ctx context.Context) (*loader.Loader, []core.Household, error) {
	if err := c.Cfg.ValidateDataFile(); err != nil {
		return nil, nil, err
	}
	l, err := loader.New(ctx, loader.WithLogger(c.Logger))
	if err != nil {
		return nil, nil, err
	}
	if err := l.Load(ctx, c.Cfg.DataFile); err != nil {
		_ = l.Close()
		return nil, nil, err
	}
	households, err := l.Households(ctx)
	if err != nil {
		_ = l.Close()
		return nil, nil, err
	}
	return l, households, nil
}

// OpenStore opens the state database, creating its directory when missing.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	if dir := filepath.Dir(c.Cfg.StatePath); dir != "." && dir != "" && c.Cfg.StatePath != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.OpenStore(c.Cfg.StatePath, c.Logger)
}

// requireStore opens an existing state database for reading.
func (c *CommandContext) requireStore() (*state.SQLiteStore, error) {
	if _, err := os.Stat(c.Cfg.StatePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("state database not found at %s (run 'households run' first)", c.Cfg.StatePath)
	}
	return state.OpenStore(c.Cfg.StatePath, c.Logger)
}
