package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// String returns the level name.
func (l Level) String() string {
	if l < DEBUG || l > FATAL {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. Unknown names fall back to INFO.
func ParseLevel(name string) Level {
	for i, n := range levelNames {
		if strings.EqualFold(name, n) {
			return Level(i)
		}
	}
	return INFO
}

// Reserved field keys hoisted out of the field map when a line is rendered.
const (
	keyError     = "error"
	keyComponent = "component"
	keyRequestID = "request_id"
)

// Field is one key/value attachment on a log line. Fields render in the
// order they were passed.
type Field struct {
	key string
	val any
}

// String attaches a string value.
func String(key, value string) Field { return Field{key, value} }

// Int attaches an integer value.
func Int(key string, value int) Field { return Field{key, value} }

// Float attaches a float value.
func Float(key string, value float64) Field { return Field{key, value} }

// Bool attaches a boolean value.
func Bool(key string, value bool) Field { return Field{key, value} }

// Error attaches err under the reserved error key. Nil errors are dropped.
func Error(err error) Field { return Field{keyError, err} }

// Component names the subsystem emitting the line.
func Component(name string) Field { return Field{keyComponent, name} }

// RequestID correlates lines belonging to one HTTP request.
func RequestID(id string) Field { return Field{keyRequestID, id} }

// Logger writes leveled structured lines in text or json form. Construct
// with NewLogger; the zero value has no output.
type Logger struct {
	mu      sync.Mutex
	level   Level
	format  string
	out     io.Writer
	service string
}

// NewLogger returns a text-format logger at INFO writing to stdout.
func NewLogger() *Logger {
	return &Logger{level: INFO, format: "text", out: os.Stdout, service: "tableprep"}
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetFormat switches between "text" and "json" output.
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	l.format = strings.ToLower(format)
	l.mu.Unlock()
}

// SetOutput redirects the logger, mainly for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// Debug logs at DEBUG.
func (l *Logger) Debug(msg string, fields ...Field) { l.emit(DEBUG, msg, fields) }

// Info logs at INFO.
func (l *Logger) Info(msg string, fields ...Field) { l.emit(INFO, msg, fields) }

// Warn logs at WARN.
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(WARN, msg, fields) }

// Error logs at ERROR with err attached when non-nil.
func (l *Logger) Error(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.emit(ERROR, msg, fields)
}

// Fatal logs like Error and exits the process.
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.emit(FATAL, msg, fields)
	os.Exit(1)
}

// record is one line after reserved keys have been hoisted.
type record struct {
	ts        string
	level     Level
	msg       string
	component string
	requestID string
	err       error
	stack     string
	fields    []Field
	file      string
	lineNo    int
}

func (l *Logger) emit(level Level, msg string, fields []Field) {
	l.mu.Lock()
	if level < l.level {
		l.mu.Unlock()
		return
	}
	format := l.format
	l.mu.Unlock()

	rec := record{
		ts:    time.Now().UTC().Format(time.RFC3339),
		level: level,
		msg:   msg,
	}
	if _, file, no, ok := runtime.Caller(2); ok {
		rec.file, rec.lineNo = filepath.Base(file), no
	}
	rest := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case keyComponent:
			rec.component, _ = f.val.(string)
		case keyRequestID:
			rec.requestID, _ = f.val.(string)
		case keyError:
			if err, ok := f.val.(error); ok && err != nil {
				rec.err = err
				rec.stack = captureStack()
			}
		default:
			rest = append(rest, f)
		}
	}
	rec.fields = rest

	var buf bytes.Buffer
	if format == "json" {
		l.renderJSON(&buf, &rec)
	} else {
		renderText(&buf, &rec)
	}
	buf.WriteByte('\n')

	l.mu.Lock()
	if l.out != nil {
		l.out.Write(buf.Bytes())
	}
	l.mu.Unlock()
}

func renderText(buf *bytes.Buffer, rec *record) {
	fmt.Fprintf(buf, "%s [%s] %s", rec.ts, rec.level, rec.msg)
	if rec.component != "" {
		fmt.Fprintf(buf, " component=%s", rec.component)
	}
	if rec.requestID != "" {
		fmt.Fprintf(buf, " request_id=%s", rec.requestID)
	}
	if rec.err != nil {
		fmt.Fprintf(buf, " error=%s", rec.err)
	}
	for _, f := range rec.fields {
		fmt.Fprintf(buf, " %s=%v", f.key, f.val)
	}
	if rec.file != "" {
		fmt.Fprintf(buf, " (%s:%d)", rec.file, rec.lineNo)
	}
}

// renderJSON writes the object by hand so keys keep a stable order.
func (l *Logger) renderJSON(buf *bytes.Buffer, rec *record) {
	buf.WriteByte('{')
	writePair(buf, "timestamp", rec.ts)
	buf.WriteByte(',')
	writePair(buf, "level", rec.level.String())
	buf.WriteByte(',')
	writePair(buf, "message", rec.msg)
	buf.WriteByte(',')
	writePair(buf, "service", l.service)
	if rec.component != "" {
		buf.WriteByte(',')
		writePair(buf, "component", rec.component)
	}
	if rec.requestID != "" {
		buf.WriteByte(',')
		writePair(buf, "request_id", rec.requestID)
	}
	if rec.err != nil {
		buf.WriteByte(',')
		writePair(buf, "error", rec.err.Error())
		buf.WriteByte(',')
		writePair(buf, "stack", rec.stack)
	}
	if len(rec.fields) > 0 {
		buf.WriteString(`,"fields":{`)
		for i, f := range rec.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writePair(buf, f.key, f.val)
		}
		buf.WriteByte('}')
	}
	if rec.file != "" {
		buf.WriteByte(',')
		writePair(buf, "file", rec.file)
		buf.WriteByte(',')
		writePair(buf, "line", rec.lineNo)
	}
	buf.WriteByte('}')
}

func writePair(buf *bytes.Buffer, key string, val any) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	v, err := json.Marshal(val)
	if err != nil {
		v, _ = json.Marshal(fmt.Sprint(val))
	}
	buf.Write(v)
}

func captureStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// FieldLogger is a Logger with a fixed field set prepended to every line.
type FieldLogger struct {
	base *Logger
	with []Field
}

// WithFields returns a logger that attaches fields to every line it writes.
func (l *Logger) WithFields(fields ...Field) *FieldLogger {
	return &FieldLogger{base: l, with: fields}
}

func (fl *FieldLogger) merged(fields []Field) []Field {
	out := make([]Field, 0, len(fl.with)+len(fields))
	out = append(out, fl.with...)
	return append(out, fields...)
}

// Debug logs at DEBUG with the fixed fields attached.
func (fl *FieldLogger) Debug(msg string, fields ...Field) {
	fl.base.emit(DEBUG, msg, fl.merged(fields))
}

// Info logs at INFO with the fixed fields attached.
func (fl *FieldLogger) Info(msg string, fields ...Field) {
	fl.base.emit(INFO, msg, fl.merged(fields))
}

// Warn logs at WARN with the fixed fields attached.
func (fl *FieldLogger) Warn(msg string, fields ...Field) {
	fl.base.emit(WARN, msg, fl.merged(fields))
}

// Error logs at ERROR with the fixed fields and err attached.
func (fl *FieldLogger) Error(msg string, err error, fields ...Field) {
	all := fl.merged(fields)
	if err != nil {
		all = append(all, Error(err))
	}
	fl.base.emit(ERROR, msg, all)
}

var (
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	defaultOnce.Do(func() { defaultLogger = NewLogger() })
	return defaultLogger
}

// InitLogger applies the configured level and format to the process logger.
func InitLogger(level, format string) {
	lg := GetLogger()
	lg.SetLevel(ParseLevel(level))
	lg.SetFormat(format)
}
