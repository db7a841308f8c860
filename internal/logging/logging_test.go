package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_JSONFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", FormatJSON, &buf)

	l.Debug("hidden")
	l.Info("fetch states", "source", "fr24", "count", 3, "stale", false, "delay", 90*time.Second)
	l.Error("save schedule", "error", "disk full")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	require.Equal(t, "info", lines[0]["level"])
	require.Equal(t, "fetch states", lines[0]["message"])
	require.Equal(t, "fr24", lines[0]["source"])
	require.Equal(t, float64(3), lines[0]["count"])
	require.Equal(t, false, lines[0]["stale"])
	require.Equal(t, "1m30s", lines[0]["delay"])
	require.NotEmpty(t, lines[0]["time"])

	require.Equal(t, "error", lines[1]["level"])
	require.Equal(t, "disk full", lines[1]["error"])
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", FormatJSON, &buf).With("job", "fleet").WithGroup("fetch")

	l.Debug("cycle", "source", "opensky", slog.Group("backoff", "seconds", 60))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "debug", lines[0]["level"])
	require.Equal(t, "fleet", lines[0]["job"])
	require.Equal(t, "opensky", lines[0]["fetch.source"])
	require.Equal(t, float64(60), lines[0]["fetch.backoff.seconds"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	New("info", FormatConsole, &buf).Info("scrape done", "flights", 12)
	require.Contains(t, buf.String(), "scrape done")
	require.Contains(t, buf.String(), "flights=12")
}
