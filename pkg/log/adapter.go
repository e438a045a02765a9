// Package log bridges the run logger into third-party logger interfaces.
package log

import "github.com/sirupsen/logrus"

// BadgerLogger routes badger's internal logging through a logrus entry
// so probe cache diagnostics carry the same fields and formatting as
// the rest of the run. Badger names its warning level differently from
// logrus, hence the explicit method set.
type BadgerLogger struct {
	entry *logrus.Entry
}

// NewBadgerLogger wraps a logrus entry for use as a badger.Logger.
func NewBadgerLogger(entry *logrus.Entry) *BadgerLogger {
	return &BadgerLogger{entry: entry}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.entry.Warningf(format, args...)
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}
