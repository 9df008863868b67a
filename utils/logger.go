package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Logger wraps standard log with level-based output. Output goes to the
// console and, when a log file is configured, to that file as well.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
	debug *log.Logger
	file  *os.File
}

// NewLogger creates a logger writing to stdout/stderr only.
func NewLogger() *Logger {
	return newLogger(nil)
}

// NewFileLogger creates a logger that additionally appends to the given
// file, creating its directory if needed. A file that cannot be opened is
// reported and skipped; losing the file copy is not worth failing the run.
func NewFileLogger(path string) *Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l := newLogger(nil)
		l.Warn("Cannot create log directory for %s: %v", path, err)
		return l
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l := newLogger(nil)
		l.Warn("Cannot open log file %s: %v", path, err)
		return l
	}
	return newLogger(file)
}

func newLogger(file *os.File) *Logger {
	out := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)
	if file != nil {
		out = io.MultiWriter(os.Stdout, file)
		errOut = io.MultiWriter(os.Stderr, file)
	}

	flags := log.Lmsgprefix
	return &Logger{
		info:  log.New(out, "[INFO]  ", flags),
		warn:  log.New(out, "[WARN]  ", flags),
		error: log.New(errOut, "[ERROR] ", flags),
		debug: log.New(out, "[DEBUG] ", flags),
		file:  file,
	}
}

// Close releases the log file, if any.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func (l *Logger) prefix() string {
	return fmt.Sprintf(" %s ", time.Now().Format("15:04:05"))
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.info.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.warn.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.error.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.debug.Printf(l.prefix()+msg, args...)
}
