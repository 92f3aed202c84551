// Package log configures the process-wide slog logger.
//
// On top of the standard DEBUG/INFO/WARN/ERROR levels it defines a SUCCESS
// level, sitting between INFO and WARN, used to report pages that were
// mirrored successfully.  Logging here is operator visibility only; nothing
// in the program makes decisions based on log output.
package log

import (
	"context"
	"io"
	"log/slog"
)

// LevelSuccess slots between slog.LevelInfo (0) and slog.LevelWarn (4).
const LevelSuccess = slog.Level(2)

// New returns a text logger writing to w.  With debug set, DEBUG records are
// included as well.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
					a.Value = slog.StringValue("SUCCESS")
				}
			}
			return a
		},
	})

	return slog.New(handler)
}

// Success logs msg at the SUCCESS level.
func Success(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelSuccess, msg, args...)
}
