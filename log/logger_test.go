package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"crit", LevelCrit},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	old := Root()
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)))
	defer SetDefault(old)
	defer DisableModule(SimMonitoring)

	Debug(SimMonitoring, "hidden debug")
	require.NotContains(t, buf.String(), "hidden debug")

	EnableModule(SimMonitoring)
	Debug(SimMonitoring, "visible debug")
	require.Contains(t, buf.String(), "visible debug")
	require.Contains(t, buf.String(), SimMonitoring)

	// Info does not filter on module.
	DisableModule(SimMonitoring)
	Info(SimMonitoring, "always visible")
	require.Contains(t, buf.String(), "always visible")
}

func TestEnableModulesList(t *testing.T) {
	defer func() {
		for _, m := range defaultKnownModules {
			DisableModule(m)
		}
	}()

	EnableModules("sim_mod, store_mod")
	require.True(t, isModuleEnabled(SimMonitoring))
	require.True(t, isModuleEnabled(StoreMonitoring))
	require.False(t, isModuleEnabled(AMMMonitoring))

	EnableModules("all")
	for _, m := range defaultKnownModules {
		require.True(t, isModuleEnabled(m))
	}
}

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, LevelWarn, false))

	l.Info(SimMonitoring, "below threshold")
	require.Empty(t, buf.String())

	l.Warn(SimMonitoring, "at threshold", "k", "v")
	out := buf.String()
	require.Contains(t, out, "at threshold")
	require.Contains(t, out, "level=warn")
	require.Contains(t, out, "k=v")
}

func TestWithAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, LevelInfo, false))

	l.With("run", "abc").Info(SimMonitoring, "tagged")
	require.Contains(t, buf.String(), "run=abc")
}

func TestLevelStrings(t *testing.T) {
	require.Equal(t, "trace", LevelString(LevelTrace))
	require.Equal(t, "crit", LevelString(LevelCrit))
	require.Equal(t, "unknown", LevelString(slog.Level(99)))
	require.Equal(t, "INFO", strings.TrimSpace(LevelAlignedString(LevelInfo)))
}
