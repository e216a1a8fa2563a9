package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPath is the log file used when none is configured, relative to the working directory.
const DefaultPath = "logs/sphereworld.txt"

// Logger stores lines of text (console input, command output, step summaries) in memory and
// appends them to a file on disk.
type Logger struct {
	mu    sync.Mutex
	path  string
	echo  io.Writer
	lines []string
	now   func() time.Time
}

// New returns a Logger writing to path (DefaultPath when empty) and ensures its directory exists.
func New(path string) *Logger {
	if path == "" {
		path = DefaultPath
	}
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	return &Logger{path: path, lines: make([]string, 0), now: time.Now}
}

// SetEcho copies every stamped line to w as well. nil disables echoing.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	l.echo = w
	l.mu.Unlock()
}

// Log appends a line to the logger and to the log file. Each entry is prefixed with [timestamp]
// using computer time.
func (l *Logger) Log(line string) {
	ts := l.now().Format("2006-01-02 15:04:05")
	stamped := "[" + ts + "] " + line

	l.mu.Lock()
	l.lines = append(l.lines, stamped)
	echo := l.echo
	l.mu.Unlock()

	if echo != nil {
		_, _ = io.WriteString(echo, stamped+"\n")
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(stamped + "\n")
	_ = f.Close()
}

// Logf formats according to a format specifier and logs the result.
func (l *Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

// Lines returns a copy of all stored lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	return l.path
}
