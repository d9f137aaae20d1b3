package gokafka

import "github.com/sirupsen/logrus"

// Logger is the interface this package logs through. Client construction
// is free to leave this nil, in which case discardLogger is used — the
// package never reaches for a concrete logging implementation itself
// (spec.md §1: "Logging is specified as an interface, not an
// implementation").
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// discardLogger drops everything; it is the zero-value fallback so
// callers never need a nil check before logging.
type discardLogger struct{}

func (discardLogger) Debugf(string, ...interface{}) {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Errorf(string, ...interface{}) {}

// logrusLogger adapts a *logrus.Logger to Logger, the same library the
// rest of the ambient stack (and cmd/gokafka-bench) uses for its own
// process-level logging.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps log (or logrus.StandardLogger() if nil) as a
// Logger.
func NewLogrusLogger(log *logrus.Logger) Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &logrusLogger{entry: logrus.NewEntry(log)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
