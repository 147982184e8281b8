package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/leapstack-labs/households/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, ctx context.Context, info BuildInfo) string {
	t.Helper()
	cmd := NewVersionCommand(info)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.ExecuteContext(ctx))
	return buf.String()
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		info    BuildInfo
		want    []string
		notWant string
	}{
		{
			name:    "release build",
			info:    BuildInfo{Version: "1.2.3", Commit: "abc1234", BuildDate: "2026-10-01"},
			want:    []string{"households v1.2.3", "commit abc1234, built 2026-10-01", runtime.Version(), "DuckDB"},
			notWant: "unknown",
		},
		{
			name:    "dev build hides unknown commit",
			info:    BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"},
			want:    []string{"households vdev"},
			notWant: "commit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runVersion(t, context.Background(), tt.info)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, tt.notWant)
		})
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	ctx := config.WithConfig(context.Background(), &config.Config{OutputFormat: "json"})
	out := runVersion(t, ctx, BuildInfo{Version: "1.2.3", Commit: "abc1234", GoVersion: "go1.24.0"})

	var got BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, BuildInfo{Version: "1.2.3", Commit: "abc1234", GoVersion: "go1.24.0"}, got)
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "test"})

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
