package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes journald-friendly key=value lines.
type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	fields []Field
}

// New creates a logger writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a logger with a custom writer
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		writer: w,
	}
}

// With returns a logger that appends fields to every line. The child shares
// the parent's writer.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{mu: l.mu, writer: l.writer, fields: merged}
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log("WARNING", msg, fields...)
}

// Debug logs debug messages
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log("DEBUG", msg, fields...)
}

func (l *Logger) log(level, msg string, fields ...Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "LEVEL=%s MESSAGE=%s", level, msg)
	for _, field := range l.fields {
		fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
	}
	for _, field := range fields {
		fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.writer, b.String())
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new field (shorthand)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors
func Action(value string) Field          { return F("ACTION", value) }
func Status(value string) Field          { return F("STATUS", value) }
func Count(value int) Field              { return F("COUNT", value) }
func Error(value error) Field            { return F("ERROR", value) }
func Reason(value string) Field          { return F("REASON", value) }
func Application(value string) Field     { return F("APPLICATION", value) }
func Slot(value time.Time) Field         { return F("SLOT", value.UTC().Format(time.RFC3339)) }
func EventID(value string) Field         { return F("EVENT_ID", value) }
func Table(value string) Field           { return F("TABLE", value) }
func Method(value string) Field          { return F("METHOD", value) }
func Path(value string) Field            { return F("PATH", value) }
func HTTPStatus(value int) Field         { return F("HTTP_STATUS", value) }
func RequestID(value string) Field       { return F("REQUEST_ID", value) }
func Duration(value time.Duration) Field { return F("DURATION_MS", value.Milliseconds()) }
