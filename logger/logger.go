// Package logger configures the process-wide zerolog logger and the
// append-only audit JSONL sinks.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	log  zerolog.Logger
)

// Init configures the global logger, which writes to stderr. Verbose enables
// debug level; when stderr is not a terminal, output is plain JSON lines
// instead of the colorized console writer.
func Init(verbose bool) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		var w io.Writer = os.Stderr
		if fi, err := os.Stderr.Stat(); err == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
			w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		}
		log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	})
}

// Get returns the process-wide logger. Init must have been called first;
// if it wasn't, a default info-level logger is used.
func Get() zerolog.Logger {
	Init(false)
	return log
}

// AuditSink is an append-only JSONL writer for the llm.jsonl/tool.jsonl
// audit logs. Event shapes are part of the observable contract and must
// not change across writers.
type AuditSink struct {
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewAuditSink opens (creating parent directories as needed) an append-only
// JSONL file under logDir named name (e.g. "llm.jsonl", "tool.jsonl").
func NewAuditSink(logDir, name string) (*AuditSink, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	ts := zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		e.Str("ts", time.Now().UTC().Format(time.RFC3339Nano))
	})
	return &AuditSink{logger: zerolog.New(f).Hook(ts)}, nil
}

// LLMEvent appends one {ts, direction, text, reasoning, raw} line.
func (a *AuditSink) LLMEvent(direction, text, reasoning string, raw any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Log().
		Str("direction", direction).
		Str("text", text).
		Str("reasoning", reasoning).
		Interface("raw", raw).
		Msg("")
}

// ToolEvent appends one {ts, tool, args, result} line.
func (a *AuditSink) ToolEvent(tool string, args map[string]any, result map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Log().
		Str("tool", tool).
		Interface("args", args).
		Interface("result", result).
		Msg("")
}
