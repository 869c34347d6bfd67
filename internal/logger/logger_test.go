package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, sync, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("run finished", "run_id", "01J", "value", 1234.5)
	require.NoError(t, sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "run finished", rec["msg"])
	assert.Equal(t, "01J", rec["run_id"])
	assert.Equal(t, 1234.5, rec["value"])
}

func TestNewConsoleDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, _, err := New(Options{Level: "DEBUG", Output: &buf})
	require.NoError(t, err)

	log.Debug("pricing chunk", "instrument", "UST2Y")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "pricing chunk")
	assert.Contains(t, buf.String(), "UST2Y")
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()

	_, _, err := New(Options{Level: "loud"})
	assert.ErrorContains(t, err, "log level")

	_, _, err = New(Options{Format: "xml"})
	assert.ErrorContains(t, err, "log format")
}
