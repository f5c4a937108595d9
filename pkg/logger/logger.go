package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Leveled logger shared by the notes service.
// Debug/Info/Warn/Error/Fatal variants write through a zerolog console writer;
// Init(level) picks the threshold.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
	level  = LevelInfo
)

func newLogger(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

func event(l Level) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return nil
	}
	switch l {
	case LevelDebug:
		return logger.Debug()
	case LevelInfo:
		return logger.Info()
	case LevelWarn:
		return logger.Warn()
	case LevelError:
		return logger.Error()
	}
	return logger.WithLevel(zerolog.FatalLevel)
}

func Debugf(format string, v ...interface{}) {
	if e := event(LevelDebug); e != nil {
		e.Msgf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if e := event(LevelInfo); e != nil {
		e.Msgf(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if e := event(LevelWarn); e != nil {
		e.Msgf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if e := event(LevelError); e != nil {
		e.Msgf(format, v...)
	}
}

// Fatalf always logs, then exits.
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Println maps to Info.
func Println(v ...interface{}) {
	if e := event(LevelInfo); e != nil {
		e.Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
	}
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
