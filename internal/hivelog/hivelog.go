// Package hivelog wraps zerolog with a key/value call style used
// throughout the engine: Info/Debug/Warn/Error take alternating key, value
// pairs rather than a printf-style format string. Loggers are constructed
// explicitly and threaded down through module constructors; none of this
// package's state is reached through a package-level global.
package hivelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the engine-wide structured logger handle.
type Logger struct {
	z zerolog.Logger
}

// Option configures a Logger at construction time.
type Option func(*zerolog.Logger)

// WithWriter overrides the destination, defaulting to a console writer on
// os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(z *zerolog.Logger) {
		*z = z.Output(w)
	}
}

// WithLevel sets the minimum level that is emitted.
func WithLevel(level string) Option {
	return func(z *zerolog.Logger) {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return
		}
		*z = z.Level(lvl)
	}
}

// New builds a Logger tagged with component, the subsystem name used to
// filter and attribute log lines (e.g. "alloc", "ecs.scheduler", "asset.cookpipe").
func New(component string, opts ...Option) *Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	z := zerolog.New(cw).With().Timestamp().Str("component", component).Logger()
	for _, opt := range opts {
		opt(&z)
	}
	return &Logger{z: z}
}

// With returns a child Logger that adds the field key=value to every line
// it emits; the component tag is unchanged. Used when a subsystem wants a
// scoped child (e.g. tagging a specific system name).
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

func (l *Logger) event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}

// Debug logs at debug level with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...interface{}) { l.event(l.z.Debug(), msg, kv) }

// Info logs at info level with alternating key/value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) { l.event(l.z.Info(), msg, kv) }

// Warn logs at warn level with alternating key/value pairs.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.event(l.z.Warn(), msg, kv) }

// Error logs at error level with alternating key/value pairs, plus the error itself.
func (l *Logger) Error(msg string, err error, kv ...interface{}) {
	l.event(l.z.Error().Err(err), msg, kv)
}

// Nop returns a Logger that discards everything, useful as a safe default
// for constructors that accept an optional *Logger.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}
