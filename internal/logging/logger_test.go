package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, false)
	log.Info("generated", "table", "loans", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "generated", entry["msg"])
	assert.Equal(t, "loans", entry["table"])
}

func TestVerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "error"}, true)
	log.Debug("chunk done")
	assert.Contains(t, buf.String(), "chunk done")

	buf.Reset()
	log = NewWithWriter(&buf, config.LoggingConfig{Level: "error"}, false)
	log.Info("hidden")
	assert.Empty(t, buf.String())
}
