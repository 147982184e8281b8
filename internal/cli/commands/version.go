package commands

import (
	"fmt"
	"runtime"

	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/leapstack-labs/households/internal/cli/output"
	"github.com/spf13/cobra"
)

// BuildInfo identifies a households binary. Fields are set at link time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the households version, the commit it was built from and the Go toolchain used.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := output.ModeAuto
			if cfg := config.FromContext(cmd.Context()); cfg != nil {
				mode, _ = output.ParseMode(cfg.OutputFormat)
			}
			if mode == output.ModeJSON {
				return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode).JSON(info)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "households v%s\n", info.Version)
			if info.Commit != "" && info.Commit != "unknown" {
				_, _ = fmt.Fprintf(w, "commit %s, built %s\n", info.Commit, info.BuildDate)
			}
			_, _ = fmt.Fprintf(w, "%s, DuckDB ingest, SQLite run history\n", info.GoVersion)
			return nil
		},
	}
}
