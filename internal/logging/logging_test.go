package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests replace the global logger and must not run in parallel.

func TestSetupConsole(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Setup("debug", "", &buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	log.Debug().Str("op", "ClearScreen").Msg("sent")
	assert.Contains(t, buf.String(), "sent")
	assert.Contains(t, buf.String(), "ClearScreen")

	buf.Reset()
	log.Trace().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestSetupDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Setup("", "", &buf)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tftlcd.log")
	var buf bytes.Buffer
	closeFn, err := Setup("info", path, &buf)
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSetupBadLevel(t *testing.T) {
	_, err := Setup("loud", "", &bytes.Buffer{})
	require.Error(t, err)
}
