package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").Sub("mockserver")

	log.Debug().Str("feature", "HOME").Msg("routing result")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mockserver", entry["subsystem"])
	assert.Equal(t, "HOME", entry["feature"])
	assert.Equal(t, "routing result", entry["message"])
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
	log.Error().Msg("error msg")
	assert.Contains(t, buf.String(), "error msg")
}

func TestZerologSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	zl := New(&buf, "info").Sub("predict").Zerolog()
	zl.Info().Msg("from library")
	assert.Contains(t, buf.String(), `"subsystem":"predict"`)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error().Msg("dropped")
	assert.Equal(t, zerolog.Disabled, log.Zerolog().GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":  zerolog.TraceLevel,
		"debug":  zerolog.DebugLevel,
		"info":   zerolog.InfoLevel,
		"warn":   zerolog.WarnLevel,
		"error":  zerolog.ErrorLevel,
		"fatal":  zerolog.FatalLevel,
		"silent": zerolog.Disabled,
		"bogus":  zerolog.InfoLevel,
		"":       zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
