package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch s {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l level) String() string {
	switch l {
	case levelDebug:
		return "debug"
	case levelWarn:
		return "warn"
	case levelError:
		return "error"
	default:
		return "info"
	}
}

// Hook receives every entry that passes the level filter.
type Hook func(entry map[string]any)

// Logger writes one JSON object per line. Safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	min   level
	hooks []Hook
}

func New(levelName string) *Logger {
	return NewWithWriter(levelName, os.Stdout)
}

func NewWithWriter(levelName string, out io.Writer) *Logger {
	return &Logger{
		out: out,
		min: parseLevel(levelName),
	}
}

// AddHook registers a hook. Not safe to call concurrently with logging.
func (l *Logger) AddHook(h Hook) {
	if h == nil {
		return
	}
	l.hooks = append(l.hooks, h)
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(levelDebug, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(levelInfo, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(levelWarn, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log(levelError, msg, fields)
}

func (l *Logger) log(lv level, msg string, fields map[string]any) {
	if lv < l.min {
		return
	}

	entry := map[string]any{
		"ts":    time.Now().Format(time.RFC3339),
		"level": lv.String(),
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}

	for _, hook := range l.hooks {
		hook(entry)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(b, '\n'))
}
