package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/leapstack-labs/households/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/households/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new households project",
		Long: `Initialize a new households project with a default configuration.

This creates:
  - households.yaml with the model parameters and age brackets
  - data/ directory for the household dataset
  - .gitignore for the state database and exported results

Use --example to also write a sample household dataset, so that
'households run' works straight away.`,
		Example: `  # Initialize in current directory
  households init

  # Initialize with a sample dataset
  households init --example

  # Initialize in a new directory
  households init my-project --example

  # Force overwrite existing config
  households init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			mode := output.ModeAuto
			if cfg := config.FromContext(cmd.Context()); cfg != nil {
				mode, _ = output.ParseMode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Write a sample household dataset")

	return cmd
}

func runInit(r *output.Renderer, dir string, force, example bool) error {
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", sharedcfg.ConfigFileName)
	}

	content, err := sharedcfg.Marshal(sharedcfg.Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	template := templateMinimal
	if example {
		template = templateExample
	}
	files, err := scaffold(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files = append([]scaffoldFile{{Path: sharedcfg.ConfigFileName}}, files...)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Group() == "Configuration" && files[j].Group() != "Configuration"
	})
	group := ""
	for _, f := range files {
		if f.Group() != group {
			if group != "" {
				r.Println("")
			}
			group = f.Group()
			r.Header(2, group)
		}
		if f.Kept {
			r.StatusLine(f.Path, "skipped", "exists, kept")
			continue
		}
		r.StatusLine(f.Path, "success", "")
	}

	r.Println("")
	r.Success("households project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if !example {
		r.Println("  1. Copy your dataset to " + sharedcfg.DefaultDataFile)
		r.Println("     (columns: age, dependents, net_worth)")
	}
	r.Println("  households validate   Check the dataset")
	r.Println("  households run        Redistribute and export the results")
	r.Println("  households history    List recorded runs")

	return nil
}
