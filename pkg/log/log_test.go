package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutputWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithComponent("cae").Info().Str("pool", "1.0").Msg("task scheduled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cae", line["component"])
	assert.Equal(t, "1.0", line["pool"])
	assert.Equal(t, "task scheduled", line["message"])
}

func TestInitRespectsGlobalLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: ErrorLevel, JSONOutput: true, Output: &buf})

	Logger.Info().Msg("should be suppressed")
	assert.Empty(t, buf.Bytes())

	Logger.Error().Msg("should appear")
	assert.NotEmpty(t, buf.Bytes())
}

func TestWithHelpersAttachFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithNodeID("node-1").Info().Msg("x")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "node-1", line["node_id"])
}
