// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

const AppName = "solar-logger"

// Options selects the handler. Dev mode prints coloured text, everything
// else is JSON.
type Options struct {
	Level slog.Level
	Env   string
	Dev   bool
}

func New(w io.Writer, opts Options) *slog.Logger {
	if opts.Dev {
		h := tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", AppName)
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
	})
	return slog.New(h).With(
		"app", AppName,
		"env", opts.Env,
	)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
