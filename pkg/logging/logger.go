// Package logging sets up zerolog for the restaurant feed and names the
// fields its components log with.
//
// Every logger carries a component (feed, api-client, repository, dispatch,
// cli). Controller loggers add the controller name, and each fetch they log
// carries its operation (first_page, refresh, load_more, details) and the
// generation it was issued under, so a discarded stale result can be matched
// to the trigger that started it.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared across components.
const (
	FieldComponent  = "component"
	FieldController = "controller"
	FieldOperation  = "operation"
	FieldGeneration = "generation"
)

// LogLevel is a level name as written in config files and flags.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var zerologLevels = map[LogLevel]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// ParseLevel normalises a level name. "warning" is accepted for warn;
// unknown names fall back to info.
func ParseLevel(name string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if level == "warning" {
		return LevelWarn
	}
	if _, ok := zerologLevels[level]; ok {
		return level
	}
	return LevelInfo
}

func (l LogLevel) zerologLevel() zerolog.Level {
	if z, ok := zerologLevels[ParseLevel(string(l))]; ok {
		return z
	}
	return zerolog.InfoLevel
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig logs JSON at info to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup sets the global level and installs the global logger that
// NewLogger derives from.
func Setup(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.SetGlobalLevel(cfg.Level.zerologLevel())
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// NewLogger returns the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// ForController scopes base to the controller called name.
func ForController(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str(FieldController, name).Logger()
}

// Fetch adds a fetch's operation and generation to e. A disabled (nil)
// event stays a no-op.
func Fetch(e *zerolog.Event, operation string, generation uint64) *zerolog.Event {
	return e.Str(FieldOperation, operation).Uint64(FieldGeneration, generation)
}

// Levels used across the feed:
//
//	debug  fetch issued/applied, stale result discarded, refresh dropped,
//	       cache hits and conditional requests
//	info   successful retries, CLI startup and shutdown
//	warn   failed first load or page, refresh failure kept loaded data,
//	       retries exhausted, server back-off
//	error  panics recovered on the dispatch loop
