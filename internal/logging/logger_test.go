package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("unknown"))
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	logger := With().Str("component", "test").Logger()
	logger.Info().Str("playlist_id", "p1").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "p1", entry["playlist_id"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	previous := Logger()
	t.Cleanup(func() { SetLogger(previous) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	Err(errors.New("store down")).Str("op", "set").Msg("persist failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store down", entry["error"])
	assert.Equal(t, "set", entry["op"])
	assert.Equal(t, "error", entry["level"])
}
