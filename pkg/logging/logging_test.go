package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/brickingsoft/ringexec/pkg/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := logging.New(buf, logiface.LevelInformational)

	logger.Debug().Str("dropped", "yes").Log("below level")
	logger.Info().Str("key", "value").Int("n", 3).Log("hello")
	logger.Err().Err(errors.New("boom")).Log("failed")
	logger.Crit().Uint64("token", 9).Log("critical")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "hello", first["message"])
	assert.Equal(t, "value", first["key"])
	assert.Equal(t, float64(3), first["n"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])

	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, "error", third["level"], "critical does not exit")
	assert.Equal(t, float64(9), third["token"])
}

func TestNilLogger(t *testing.T) {
	var logger *logiface.Logger[logiface.Event]
	assert.NotPanics(t, func() {
		logger.Info().Str("key", "value").Log("nothing")
	})
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]logiface.Level{
		"debug":    logiface.LevelDebug,
		"info":     logiface.LevelInformational,
		"warn":     logiface.LevelWarning,
		"warning":  logiface.LevelWarning,
		"error":    logiface.LevelError,
		"err":      logiface.LevelError,
		"trace":    logiface.LevelTrace,
		"disabled": logiface.LevelDisabled,
	} {
		level, ok := logging.ParseLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, level, name)
	}
	_, ok := logging.ParseLevel("loud")
	assert.False(t, ok)
}
