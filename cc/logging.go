package cc

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// charmLogger adapts charmbracelet/log to the package's minimal Logger
// interface, matching the teacher's own preference for that library over
// the standard log package.
type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a Logger writing to w at the given level ("debug",
// "info", "warn", or "error"; anything else falls back to info).
func NewLogger(w io.Writer, level string) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{ReportTimestamp: true})
	switch level {
	case "debug":
		l.SetLevel(charmlog.DebugLevel)
	case "warn":
		l.SetLevel(charmlog.WarnLevel)
	case "error":
		l.SetLevel(charmlog.ErrorLevel)
	default:
		l.SetLevel(charmlog.InfoLevel)
	}
	return &charmLogger{l: l}
}

func (c *charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c *charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c *charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
