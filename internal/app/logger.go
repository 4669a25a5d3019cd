package app

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Logger writes JSON lines. The TUI owns stdout, so the default sink is a
// file under the user config dir.
type Logger struct {
	out io.Writer
}

type LogEvent struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func NewLogger(out io.Writer) *Logger {
	return &Logger{out: out}
}

// OpenLogFile returns a logger appending to tutor-cli/tutor.log in the user
// config dir, or a discard logger if the file cannot be opened.
func OpenLogFile() *Logger {
	base, err := os.UserConfigDir()
	if err != nil {
		return NewLogger(io.Discard)
	}
	dir := filepath.Join(base, "tutor-cli")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewLogger(io.Discard)
	}
	f, err := os.OpenFile(filepath.Join(dir, "tutor.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return NewLogger(io.Discard)
	}
	return NewLogger(f)
}

func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.write("info", message, fields)
}

func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.write("error", message, fields)
}

func (l *Logger) write(level, message string, fields map[string]interface{}) {
	evt := LogEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	payload, _ := json.Marshal(evt)
	payload = append(payload, '\n')
	_, _ = l.out.Write(payload)
}
