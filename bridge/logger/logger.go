package logger

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger interface is used to allow tests to inject custom loggers.
type Logger interface {
	Fatalf(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debug(...interface{})
	Warn(...interface{})
	Info(...interface{})
	Fatal(...interface{})
	Prefix(string)
	Silent(bool)
	Writer() io.Writer
	SetWriter(io.Writer)
}

type logger struct {
	*log.Logger
	prefix string
	out    io.Writer
	silent bool
}

// NewLogger returns a new Logger instance backed by Logrus.
func NewLogger(level uint32) Logger {
	l := log.New()
	l.SetLevel(log.Level(level))
	logFormatter := &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	l.Formatter = logFormatter
	return &logger{Logger: l, out: l.Out}
}

// NewSilentLogger returns a Logger that discards everything but fatal
// messages.
func NewSilentLogger() Logger {
	l := NewLogger(uint32(log.InfoLevel))
	l.Silent(true)
	return l
}

// Prefix sets a string prepended to every log message.
func (l *logger) Prefix(prefix string) {
	l.prefix = prefix
}

// Silent discards output while enabled.
func (l *logger) Silent(silent bool) {
	l.silent = silent
	if silent {
		l.Logger.Out = io.Discard
	} else {
		l.Logger.Out = l.out
	}
}

func (l *logger) Writer() io.Writer {
	return l.Out
}

func (l *logger) SetWriter(writer io.Writer) {
	l.out = writer
	if !l.silent {
		l.Out = writer
	}
}

func (l *logger) Debugf(format string, v ...interface{}) {
	l.Logger.Debugf(l.prefix+format, v...)
}

func (l *logger) Infof(format string, v ...interface{}) {
	l.Logger.Infof(l.prefix+format, v...)
}

func (l *logger) Warnf(format string, v ...interface{}) {
	l.Logger.Warnf(l.prefix+format, v...)
}

func (l *logger) Errorf(format string, v ...interface{}) {
	l.Logger.Errorf(l.prefix+format, v...)
}

func (l *logger) Fatalf(format string, v ...interface{}) {
	l.Logger.Fatalf(l.prefix+format, v...)
}

func (l *logger) Debug(v ...interface{}) {
	l.Logger.Debug(l.withPrefix(v)...)
}

func (l *logger) Info(v ...interface{}) {
	l.Logger.Info(l.withPrefix(v)...)
}

func (l *logger) Warn(v ...interface{}) {
	l.Logger.Warn(l.withPrefix(v)...)
}

func (l *logger) Fatal(v ...interface{}) {
	l.Logger.Fatal(l.withPrefix(v)...)
}

func (l *logger) withPrefix(v []interface{}) []interface{} {
	if l.prefix == "" {
		return v
	}
	return append([]interface{}{l.prefix}, v...)
}
