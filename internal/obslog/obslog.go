// Package obslog wraps zerolog into the component-prefixed logging
// convention the teacher expressed with "PREFIX: message" log.Printf
// calls, translated to structured fields so log aggregation can filter on
// component and round/block number instead of parsing strings.
package obslog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger scoped to one component (e.g. "consensus",
// "chainstore", "detector") — the structured analogue of the teacher's
// "COMPONENT: message" log.Printf prefix.
type Logger struct {
	zerolog.Logger
	component string
}

// New builds a Logger for component, writing to w at the given level
// ("debug", "info", "warn", "error"; unrecognized values fall back to
// info).
func New(component string, level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	base := zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger().
		Level(parseLevel(level))
	return Logger{Logger: base, component: component}
}

// NewPretty builds a console-formatted Logger suitable for interactive use
// (cmd/rotorchain-node's default), mirroring the teacher's human-readable
// stdout logging but through zerolog's ConsoleWriter.
func NewPretty(component string, level string) Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	base := zerolog.New(output).With().
		Timestamp().
		Str("component", component).
		Logger().
		Level(parseLevel(level))
	return Logger{Logger: base, component: component}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child Logger for a sub-component, e.g.
// parent.With("ordering") for the ordering phase of the consensus engine.
func (l Logger) With(subComponent string) Logger {
	return Logger{
		Logger:    l.Logger.With().Str("subcomponent", subComponent).Logger(),
		component: l.component,
	}
}
