package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("Could not find PDF agenda link", "meeting", "https://example.com/m/1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Could not find PDF agenda link")
	assert.Contains(t, out, "meeting=https://example.com/m/1")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("Found meeting type lists", "count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "Found meeting type lists", entry["msg"])
	assert.EqualValues(t, 2, entry["count"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Options{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "meetings.log")

	logger, closer, err := New(Options{Level: "info", File: path, Output: &buf})
	require.NoError(t, err)

	logger.Info("Saved meetings", "count", 3)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Saved meetings")
	assert.Contains(t, buf.String(), "Saved meetings")
}

func TestNewFileKeepsTerminalColours(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "meetings.log")

	logger, closer, err := New(Options{Level: "info", File: path, Output: &buf})
	require.NoError(t, err)

	logger.Error("Error finding meetings region", "err", "timeout")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "\x1b[", "terminal output is styled")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ERROR")
	assert.Contains(t, string(raw), "Error finding meetings region")
	assert.NotContains(t, string(raw), "\x1b[", "file output is plain")
}
