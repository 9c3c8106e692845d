package logger

import (
	"log/slog"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// Slog returns a slog.Logger that writes through the global zerolog logger
// with the given component field. The engine, api and notify packages take
// a *slog.Logger; this keeps their output in the CLI's format.
func Slog(component string) *slog.Logger {
	return slog.New(NewSlogHandler(WithComponent(component)))
}

// NewSlogHandler returns a slog.Handler that writes to l at l's level.
func NewSlogHandler(l zerolog.Logger) slog.Handler {
	return slogzerolog.Option{
		Level:  slogLevel(l.GetLevel()),
		Logger: &l,
	}.NewZerologHandler()
}

func slogLevel(l zerolog.Level) slog.Level {
	switch {
	case l >= zerolog.ErrorLevel:
		return slog.LevelError
	case l == zerolog.WarnLevel:
		return slog.LevelWarn
	case l == zerolog.InfoLevel:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
