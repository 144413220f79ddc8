// Package wslog provides the small structured-logging wrapper used by the
// handshake and read loop to trace protocol events, in the same style
// pkg/devtools uses a *log.Logger in the teacher repo this package is
// modeled on: a thin wrapper, not a framework.
package wslog

import (
	"io"
	"log"
)

// Logger traces handshake and frame-level events. The zero value discards
// everything, so callers never need a nil check.
type Logger struct {
	l *log.Logger
}

// New returns a Logger writing to w with the given prefix.
func New(w io.Writer, prefix string) *Logger {
	return &Logger{l: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)}
}

// Discard is the default logger: every call is a no-op.
var Discard = &Logger{}

func (lg *Logger) Printf(format string, args ...interface{}) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Printf(format, args...)
}
