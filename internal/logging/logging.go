// Package logging holds the logrus helpers shared by the parsing packages.
package logging

import (
	"io"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/sirupsen/logrus"
)

// Discard returns a logger that drops everything. It is the default for
// every component so library callers see no output unless they ask.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// For returns l tagged with the component name, or a discarding logger
// when l is nil.
func For(l logrus.FieldLogger, component string) logrus.FieldLogger {
	if l == nil {
		l = Discard()
	}
	return l.WithField("component", component)
}

// Issue returns an entry carrying the position and classification of e.
func Issue(l logrus.FieldLogger, e *core.Error) *logrus.Entry {
	fields := logrus.Fields{
		"kind": e.Kind.String(),
		"code": e.Code.String(),
	}
	if e.Offset >= 0 {
		fields["offset"] = e.Offset
	}
	if e.Object != (core.ObjectID{}) {
		fields["object"] = e.Object.String()
	}
	return l.WithFields(fields)
}
