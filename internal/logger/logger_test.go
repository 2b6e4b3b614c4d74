package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Opts{Env: "production", Level: slog.LevelInfo, Out: &buf})

	log.Debug("hidden")
	log.Info("render finished", slog.Int("cells", 6))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	require.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"message":"render finished"`)
	assert.Contains(t, out, `"cells":6`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestNewConsoleInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	New(Opts{Env: "development", Level: slog.LevelDebug, Out: &buf}).Debug("booting")

	out := buf.String()
	assert.Contains(t, out, "booting")
	assert.False(t, strings.HasPrefix(out, "{"), "console output is not JSON")
}

func TestNewFansOutToFile(t *testing.T) {
	var out, file bytes.Buffer
	New(Opts{Env: "production", Level: slog.LevelWarn, Out: &out, File: &file}).Warn("slow thumbnail")

	assert.Contains(t, out.String(), "slow thumbnail")
	assert.Contains(t, file.String(), "slow thumbnail")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
