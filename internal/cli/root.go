// Package cli provides the command-line interface for households.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/households/internal/cli/commands"
	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/leapstack-labs/households/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/households/internal/config"
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type rendererKey struct{}

// skipSetup lists commands that run without loading configuration.
var skipSetup = map[string]bool{
	"help":                          true,
	"completion":                    true,
	cobra.ShellCompRequestCmd:       true,
	cobra.ShellCompNoDescRequestCmd: true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "households",
		Short: "households - Household wealth redistribution",
		Long: `households redistributes the combined net worth of a population of
households so that every household can consume the same amount per
equivalent-adult-year over its remaining life.

Households with more remaining years or more dependents receive more;
each run is checked for consistency, exported and recorded for later
inspection.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup[cmd.Name()] {
				return nil
			}
			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				// init may be replacing a broken households.yaml.
				if cmd.Name() == "init" {
					return nil
				}
				return err
			}
			cmd.SetContext(withCommandEnv(cmd, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: households.yaml in the project root)")
	pf.String("data", "", "Household dataset CSV")
	pf.String("state", "", "State database recording runs")
	pf.BoolP("verbose", "v", false, "Log debug output to stderr")
	pf.StringP("output", "o", "", "Output mode: auto, text, markdown or json")
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	_ = rootCmd.MarkPersistentFlagFilename("data", "csv")
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		commands.NewRunCommand(),
		commands.NewValidateCommand(),
		commands.NewDescribeCommand(),
		commands.NewHistoryCommand(),
		commands.NewQueryCommand(),
		commands.NewInitCommand(),
		commands.NewVersionCommand(commands.BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate}),
		newCompletionCommand(),
	)
	return rootCmd
}

// withCommandEnv returns the command context extended with the loaded
// config, a logger at the configured verbosity and an output renderer.
func withCommandEnv(cmd *cobra.Command, cfg *config.Config) context.Context {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.ConfigFile != "" {
		logger.Debug("using config file", slog.String("path", cfg.ConfigFile))
	}

	mode, _ := output.ParseMode(cfg.OutputFormat)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = config.WithLogger(ctx, logger)
	ctx = config.WithConfig(ctx, cfg)
	return context.WithValue(ctx, rendererKey{}, output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode))
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig returns the config loaded by the root command, or the defaults.
func GetConfig(ctx context.Context) *config.Config {
	if c := config.FromContext(ctx); c != nil {
		return c
	}
	return &config.Config{
		ProjectConfig: *sharedcfg.Default(),
		OutputFormat:  config.DefaultOutput,
	}
}

// GetRenderer returns the renderer set up by the root command, or one on
// stdout in auto mode.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for households and write it to stdout.

  bash:        source <(households completion bash)
  zsh:         households completion zsh > "${fpath[1]}/_households"
  fish:        households completion fish > ~/.config/fish/completions/households.fish
  powershell:  households completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
