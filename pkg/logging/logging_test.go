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

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv("XDG_STATE_HOME", tempDir)

			SetupLogger(tt.verbosity)

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			logPath := filepath.Join(tempDir, "dopack", "dopack.log")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should be created at %s", logPath)
		})
	}
}

func TestGetLogFilePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, filepath.Join("/custom/state", "dopack", "dopack.log"), GetLogFilePath())
}

func TestGetLogger(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := GetLogger("walker")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"walker"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	done := LogOperationStart(logger, "walk")
	require.Contains(t, buf.String(), "Operation started")

	done()
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), `"duration"`)
}

func TestFor(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("run", "r1").Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := For(&base, "copier")
	logger.Info().Msg("copied")
	assert.Contains(t, buf.String(), `"component":"copier"`)
	assert.Contains(t, buf.String(), `"run":"r1"`)

	original := log.Logger
	t.Cleanup(func() { log.Logger = original })
	buf.Reset()
	log.Logger = zerolog.New(&buf)

	global := For(nil, "walker")
	global.Info().Msg("walked")
	assert.Contains(t, buf.String(), `"component":"walker"`)
	assert.NotContains(t, buf.String(), `"run"`)
}

func TestSetup(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	t.Run("console only", func(t *testing.T) {
		var console bytes.Buffer
		require.NoError(t, Setup(Options{Verbosity: 1, Console: &console}))

		log.Info().Msg("visible")
		log.Debug().Msg("hidden")
		assert.Contains(t, console.String(), "visible")
		assert.NotContains(t, console.String(), "hidden")
		assert.NotContains(t, console.String(), "\x1b[", "non-terminal console gets no colors")
	})

	t.Run("unusable log file keeps the console", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		var console bytes.Buffer
		err := Setup(Options{Console: &console, LogFile: filepath.Join(blocker, "dopack.log")})
		require.Error(t, err)

		log.Warn().Msg("still here")
		assert.Contains(t, console.String(), "still here")
	})

	t.Run("log file receives json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "dopack.log")
		require.NoError(t, Setup(Options{LogFile: path}))

		log.Warn().Str("stage", "copy").Msg("to file")
		require.NoError(t, Setup(Options{}))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"stage":"copy"`)
	})
}
