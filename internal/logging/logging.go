package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Logger writes leveled lines to a single output. Safe for concurrent use;
// the channel goroutine and the UI loop share one instance.
type Logger struct {
	mu   sync.Mutex
	min  Level
	json bool
	out  io.Writer
}

func New(level string, jsonOut bool) *Logger {
	return &Logger{min: ParseLevel(level), json: jsonOut, out: os.Stderr}
}

// SetOutput redirects log lines, e.g. to a file while the TUI owns the terminal.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *Logger) Enabled(v Level) bool { return v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, fmt.Sprintf(format, a...)) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, fmt.Sprintf(format, a...)) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, fmt.Sprintf(format, a...)) }

func (l *Logger) log(level Level, msg string) {
	if l == nil || !l.Enabled(level) {
		return
	}
	lvl := levelString(level)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json {
		payload := map[string]any{
			"ts":    time.Now().Format(time.RFC3339Nano),
			"level": lvl,
			"msg":   msg,
		}
		_ = json.NewEncoder(l.out).Encode(payload)
		return
	}
	fmt.Fprintf(l.out, "%s %s\t%s\n", time.Now().Format("15:04:05"), strings.ToUpper(lvl), msg)
}

func levelString(l Level) string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}
