package logger

import (
	"log"
	"os"
)

// Levels in increasing order of severity. SILENCE drops everything; tests
// run with it to keep their output readable.
const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type stdLogger struct {
	level int
	out   *log.Logger
}

// NewLogger returns a Logger writing to stderr. Messages below level are
// dropped.
func NewLogger(level int) *stdLogger {
	return &stdLogger{level: level, out: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *stdLogger) Debugf(msg string, a ...any) {
	l.printf(DEBUG, "DEBUG: "+msg, a...)
}

func (l *stdLogger) Infof(msg string, a ...any) {
	l.printf(INFO, "INFO: "+msg, a...)
}

func (l *stdLogger) Warnf(msg string, a ...any) {
	l.printf(WARNING, "WARN: "+msg, a...)
}

func (l *stdLogger) Errorf(msg string, a ...any) {
	l.printf(ERROR, "ERROR: "+msg, a...)
}

func (l *stdLogger) printf(level int, msg string, a ...any) {
	if l.level > level {
		return
	}

	l.out.Printf(msg, a...)
}
