// Package logger provides process-wide logging for the digest CLI.
// Warnings and errors are always written; debug and info messages
// appear once verbose mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	output  io.Writer      = zerolog.SyncWriter(os.Stderr)
	log     zerolog.Logger = build(output, false, false)
)

// build constructs the logger for the current settings. w is already
// synchronised; callers hold mu.
func build(w io.Writer, v, asJSON bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if v {
		level = zerolog.DebugLevel
	}

	if asJSON {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			s, _ := i.(string)
			switch s {
			case zerolog.LevelWarnValue:
				return "[WARN]"
			case "":
				return ""
			default:
				return "[" + strings.ToUpper(s) + "]"
			}
		},
	}
	return zerolog.New(cw).Level(level)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = build(output, verbose, jsonOut)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetJSON switches between console lines and JSON records.
// Long-running servers use JSON.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = enabled
	log = build(output, verbose, jsonOut)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = zerolog.SyncWriter(w)
	log = build(output, verbose, jsonOut)
}

// Get returns a copy of the current logger for structured fields.
func Get() *zerolog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	return &l
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	Get().Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	Get().Info().Msg(fmt.Sprintf("=== %s ===", name))
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	Get().Info().Msgf(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	Get().Warn().Msgf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	Get().Error().Msgf(format, args...)
}
