package ulogger

import (
	"sync"
	"testing"
)

// VerboseTestLogger routes log lines to t.Logf so they only show up for failing or -v tests.
type VerboseTestLogger struct {
	t     testing.TB
	mutex sync.Mutex
}

func NewVerboseTestLogger(t testing.TB) *VerboseTestLogger {
	return &VerboseTestLogger{t: t}
}

func (l *VerboseTestLogger) LogLevel() int {
	return 0
}

func (l *VerboseTestLogger) SetLogLevel(level string) {}

func (l *VerboseTestLogger) New(service string, options ...Option) Logger {
	return l
}

func (l *VerboseTestLogger) Duplicate(options ...Option) Logger {
	return l
}

func (l *VerboseTestLogger) logf(level, format string, args ...interface{}) {
	if l.t == nil {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.t.Helper()
	l.t.Logf("["+level+"] "+format, args...)
}

func (l *VerboseTestLogger) Debugf(format string, args ...interface{}) {
	l.logf("DEBUG", format, args...)
}

func (l *VerboseTestLogger) Infof(format string, args ...interface{}) {
	l.logf("INFO", format, args...)
}

func (l *VerboseTestLogger) Warnf(format string, args ...interface{}) {
	l.logf("WARN", format, args...)
}

func (l *VerboseTestLogger) Errorf(format string, args ...interface{}) {
	l.logf("ERROR", format, args...)
}

// Fatalf only logs; failing the test is left to the assertions.
func (l *VerboseTestLogger) Fatalf(format string, args ...interface{}) {
	l.logf("FATAL", format, args...)
}
