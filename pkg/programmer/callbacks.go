// SPDX-License-Identifier: GPL-3.0-or-later

package programmer

import (
	"log"
	"os"
)

// Logger is the minimal logging surface Programmer needs. Unless
// WithLogger overrides it, New uses a standard library logger writing
// to stderr.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdLogger adapts the standard library's *log.Logger to Logger.
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Debugf(format string, args ...any) {
	l.Printf("debug: "+format, args...)
}

func (l *stdLogger) Errorf(format string, args ...any) {
	l.Printf("error: "+format, args...)
}

func defaultLogger() Logger {
	return &stdLogger{log.New(os.Stderr, "", log.LstdFlags)}
}

// ProgressFunc reports streaming progress for chunked memory writes
// (ProgramROM, ProgramEEPROM). done and total are both measured in
// bytes. ReadROM and ReadEEPROM do not report progress.
type ProgressFunc func(done, total int)
