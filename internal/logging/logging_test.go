package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuchikomi/internal/logging"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWithWriter(&buf, "debug", false)
	require.NoError(t, err)

	log.Info().Str("source", "directory").Msg("harvest started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "directory", line["source"])
	assert.Equal(t, "harvest started", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWithWriter(&buf, "warn", false)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWithWriter(&buf, "", true)
	require.NoError(t, err)

	log.Info().Str("source", "map_listing").Msg("page collected")
	out := buf.String()
	assert.Contains(t, out, "page collected")
	assert.Contains(t, out, "source=")
	assert.Contains(t, out, "map_listing")
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	_, err := logging.NewWithWriter(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}
