//go:build linux

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brickingsoft/ringexec/pkg/aio"
	"github.com/brickingsoft/ringexec/pkg/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entries: 64
producers: 2
operations: 50
rate: 1000
timer_delay: 2ms
timer_ratio: 0.5
backpressure: reject
log_level: debug
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), cfg.Entries)
	assert.Equal(t, 2, cfg.Producers)
	assert.Equal(t, 50, cfg.Operations)
	assert.Equal(t, float64(1000), cfg.Rate)
	assert.Equal(t, 2*time.Millisecond, cfg.TimerDelay)
	assert.Equal(t, "reject", cfg.Backpressure)
	assert.Equal(t, -1, cfg.CPU, "defaults survive")
	require.NoError(t, cfg.Validate())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("producers: 3\noperations: 7\n"), 0o600))

	cfg, err := parseFlags([]string{"-config", path, "-ops", "9", "-delay", "5ms"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Producers, "from file")
	assert.Equal(t, 9, cfg.Operations, "flag wins")
	assert.Equal(t, 5*time.Millisecond, cfg.TimerDelay)

	_, err = parseFlags([]string{"-producers", "0"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-backpressure", "drop"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-timer-ratio", "2"})
	assert.Error(t, err)
}

func TestConfig_IsTimer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimerRatio = 0.25
	timers := 0
	for i := 0; i < 100; i++ {
		if cfg.isTimer(i) {
			timers++
		}
	}
	assert.Equal(t, 25, timers)

	cfg.TimerRatio = 0
	assert.False(t, cfg.isTimer(3))
	cfg.TimerRatio = 1
	assert.True(t, cfg.isTimer(3))
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Entries = 32
	cfg.Producers = 3
	cfg.Operations = 40
	cfg.TimerRatio = 0.2
	cfg.TimerDelay = 100 * time.Microsecond
	require.NoError(t, cfg.Validate())

	logger := logging.New(new(bytes.Buffer), logiface.LevelWarning)
	r, err := run(context.Background(), cfg, logger)
	if aio.IsUnsupported(err) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	assert.Equal(t, int64(3*40), r.schedules+r.timers)
	assert.Equal(t, int64(3*8), r.timers)

	out := new(bytes.Buffer)
	r.print(out)
	t.Log(out.String())
	assert.Contains(t, out.String(), "operations: 120")
}
