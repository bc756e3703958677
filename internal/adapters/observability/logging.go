package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the service-wide zerolog Logger, tagged with the
// service name. APP_ENV=dev (or development) trades JSON output for a
// human-friendly console writer and enables debug level, where the
// reconciler traces superseded runs.
func NewLogger(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	out := io.Writer(os.Stdout)
	if env == "dev" || env == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", "travelops").
		Logger()
}
