package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes one line per message. Inside GitHub Actions it emits workflow
// commands so errors and warnings show up as annotations; elsewhere it writes
// timestamped lines. A nil *Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	actions bool
	debug   bool
	now     func() time.Time
}

// New creates a Logger writing to out
func New(out io.Writer, debug bool) *Logger {
	return &Logger{
		out:     out,
		actions: os.Getenv("GITHUB_ACTIONS") == "true",
		debug:   debug,
		now:     time.Now,
	}
}

// NewActions creates a Logger that always emits workflow commands
func NewActions(out io.Writer, debug bool) *Logger {
	l := New(out, debug)
	l.actions = true
	return l
}

// Infof writes an informational line
func (l *Logger) Infof(format string, args ...any) {
	l.write("", "INFO", format, args...)
}

// Warnf writes a warning
func (l *Logger) Warnf(format string, args ...any) {
	l.write("warning", "WARN", format, args...)
}

// Errorf writes an error
func (l *Logger) Errorf(format string, args ...any) {
	l.write("error", "ERROR", format, args...)
}

// Debugf writes a line only when debug output is enabled. GitHub hides
// ::debug:: lines unless step debugging is on, so they are always sent there.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || (!l.debug && !l.actions) {
		return
	}
	l.write("debug", "DEBUG", format, args...)
}

// Group starts a collapsible section and returns the function that ends it
func (l *Logger) Group(title string) func() {
	if l == nil {
		return func() {}
	}
	if !l.actions {
		l.Infof("== %s", title)
		return func() {}
	}
	l.raw("::group::" + title)
	return func() { l.raw("::endgroup::") }
}

func (l *Logger) write(command, level, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if l.actions {
		if command == "" {
			l.raw(line)
			return
		}
		l.raw(fmt.Sprintf("::%s::%s", command, escapeData(line)))
		return
	}
	l.raw(fmt.Sprintf("[%s] %-5s %s", l.now().Format(time.RFC3339), level, line))
}

func (l *Logger) raw(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// escapeData escapes a workflow command message the way the Actions runner expects
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
