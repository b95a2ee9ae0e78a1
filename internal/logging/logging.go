package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
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
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func (l Level) String() string {
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

type Logger struct {
	min  Level
	json bool
	out  io.Writer
}

func New(level string, jsonOut bool) *Logger {
	return &Logger{min: ParseLevel(level), json: jsonOut, out: os.Stderr}
}

// NewWriter is like New but logs to the given writer; used in tests.
func NewWriter(level string, jsonOut bool, out io.Writer) *Logger {
	return &Logger{min: ParseLevel(level), json: jsonOut, out: out}
}

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, fmt.Sprintf(format, a...)) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, fmt.Sprintf(format, a...)) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, fmt.Sprintf(format, a...)) }

func (l *Logger) log(level Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	if l.json {
		_ = json.NewEncoder(l.out).Encode(map[string]any{
			"ts":    time.Now().Format(time.RFC3339Nano),
			"level": level.String(),
			"msg":   msg,
		})
		return
	}
	fmt.Fprintf(l.out, "%s\t%s\n", strings.ToUpper(level.String()), msg)
}
