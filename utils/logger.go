package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Log is the process-wide console logger. Components derive child loggers
// from it with Component.
var Log = newLogger(os.Stdout)

func newLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	}
	return zerolog.New(output).Level(levelFromEnv()).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func levelFromEnv() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// SetOutput redirects all logging to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	Log = newLogger(w)
}

// Component returns a logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

func Debug(format string, a ...interface{}) {
	Log.Debug().Msg(fmt.Sprintf(format, a...))
}

func Info(format string, a ...interface{}) {
	Log.Info().Msg(fmt.Sprintf(format, a...))
}

// Success logs at info level with an ok marker, for completed steps.
func Success(format string, a ...interface{}) {
	Log.Info().Bool("ok", true).Msg(fmt.Sprintf(format, a...))
}

func Warn(format string, a ...interface{}) {
	Log.Warn().Msg(fmt.Sprintf(format, a...))
}

func Error(format string, a ...interface{}) {
	Log.Error().Msg(fmt.Sprintf(format, a...))
}

func Section(title string) {
	Log.Info().Msg(fmt.Sprintf("══════════ %s ══════════", title))
}
