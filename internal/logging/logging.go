// Package logging emits JSON lines for the few diagnostics this tool has:
// initialization failures and fatal exits. Snapshot output never goes
// through here.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// now is swappable in tests.
var now = time.Now

type Logger struct {
	w  io.Writer
	mu sync.Mutex
}

func NewJSONLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

func (l *Logger) Info(fields map[string]any)  { l.emit("info", fields) }
func (l *Logger) Error(fields map[string]any) { l.emit("error", fields) }

func (l *Logger) emit(level string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["level"] = level
	fields["ts"] = now().UTC().Format(time.RFC3339Nano)

	b, err := json.Marshal(fields)
	if err != nil {
		// Last resort: drop structured fields.
		b = []byte(`{"level":"error","msg":"failed to marshal log"}`)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}
