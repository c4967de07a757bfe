// Package telemetry provides structured logging, Prometheus metrics, and
// health endpoints for the inspection engine — the ambient observability
// stack a production component of this shape always carries even when a
// feature list never calls it out explicitly. Grounded on
// cuemby-warren/pkg/log and cuemby-warren/pkg/metrics.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the four levels a zerolog-backed logger exposes.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// LogConfig controls the global logger's verbosity and output shape.
type LogConfig struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Logger is the process-wide logger, configured by InitLogging.
var Logger zerolog.Logger

// InitLogging configures the global Logger.
func InitLogging(cfg LogConfig) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagging every entry with component.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func init() {
	InitLogging(LogConfig{Level: InfoLevel})
}
