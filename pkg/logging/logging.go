package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFileName is the path of the log file relative to XDG_STATE_HOME.
const LogFileName = "dopack/dopack.log"

// Options configures the global logger.
type Options struct {
	// Verbosity is the -v count.
	Verbosity int
	// Console receives human readable output. Nil disables it.
	Console io.Writer
	// LogFile receives JSON lines. Empty disables it.
	LogFile string
}

var (
	mu      sync.Mutex
	logFile *os.File
)

// SetupLogger configures the global logger for the command line: console
// output on stderr plus the log file under the XDG state directory.
func SetupLogger(verbosity int) {
	path := GetLogFilePath()
	if err := Setup(Options{Verbosity: verbosity, Console: os.Stderr, LogFile: path}); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to create log file, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("logFile", path).Msg("Logger initialized")
}

// Setup replaces the global logger. A log file that cannot be opened is
// reported but the console output is still installed.
func Setup(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(LevelFor(opts.Verbosity))

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(opts.Console),
		})
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	var fileErr error
	if opts.LogFile != "" {
		logFile, fileErr = openLogFile(opts.LogFile)
		if fileErr == nil {
			writers = append(writers, logFile)
		}
	}

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()
	return fileErr
}

// LevelFor maps a -v count to a zerolog level
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// For returns the component logger derived from base, or the global one
// when the host supplied none.
func For(base *zerolog.Logger, component string) zerolog.Logger {
	if base == nil {
		return GetLogger(component)
	}
	return base.With().Str("component", component).Logger()
}

// GetLogFilePath returns the path to the log file, honouring XDG_STATE_HOME
func GetLogFilePath() string {
	xdg.Reload()
	return filepath.Join(xdg.StateHome, filepath.FromSlash(LogFileName))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogOperationStart logs the start of a stage and returns the function that
// logs its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
