// package shared defines shared helpers
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// SetLogLevelString parses a level name ("debug", "info", "warn", "error") and applies it.
//
// Unknown names leave the level unchanged and return an error wrapping [ErrInvalidConfig].
func SetLogLevelString(l *log.Logger, level string) error {
	if level == "" {
		return nil
	}
	ll, err := log.ParseLevel(level)
	if err != nil {
		return errorf(ErrInvalidConfig, "log level %q: %v", level, err)
	}
	SetLogLevel(l, ll)
	return nil
}

// DiscardLogger returns a [log.Logger] writing to [io.Discard], used where no logger was supplied.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}
