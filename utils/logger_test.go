package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(format string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	lg := NewLogger()
	lg.SetOutput(&buf)
	lg.SetFormat(format)
	return lg, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry)
	require.NoError(t, err, "log line should be one JSON object")
	return entry
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{Level(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, FATAL, ParseLevel("fatal"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestLoggerLevelFiltering(t *testing.T) {
	lg, buf := captureLogger("text")
	lg.SetLevel(WARN)

	lg.Debug("debug message")
	lg.Info("info message")
	lg.Warn("warn message")
	lg.Error("error message", nil)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerDefaultLevelIsInfo(t *testing.T) {
	lg, buf := captureLogger("text")

	lg.Debug("hidden")
	lg.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerTextFormat(t *testing.T) {
	lg, buf := captureLogger("text")

	lg.Info("test message", String("key", "value"), Int("number", 42))

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "number=42")
	assert.Contains(t, out, "logger_test.go:", "caller location should point at the call site")
}

func TestLoggerJSONFormat(t *testing.T) {
	lg, buf := captureLogger("json")

	lg.Info("test message", String("key", "value"), Int("number", 42))

	entry := decodeLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "tableprep", entry["service"])
	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok, "fields object expected")
	assert.Equal(t, "value", fields["key"])
	assert.Equal(t, float64(42), fields["number"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "file")
	assert.Contains(t, entry, "line")
}

func TestLoggerReservedKeysHoisted(t *testing.T) {
	lg, buf := captureLogger("json")

	lg.Info("hoisted", Component("api"), RequestID("req-123"), Bool("flag", true))

	entry := decodeLine(t, buf)
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "req-123", entry["request_id"])
	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, fields["flag"])
	assert.NotContains(t, fields, "component")
	assert.NotContains(t, fields, "request_id")
}

func TestLoggerErrorAttachesStack(t *testing.T) {
	lg, buf := captureLogger("json")

	lg.Error("boom", assert.AnError, Float("elapsed", 1.5))

	entry := decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Contains(t, entry, "stack")
	assert.Equal(t, 1.5, entry["fields"].(map[string]any)["elapsed"])
}

func TestLoggerNilErrorIgnored(t *testing.T) {
	lg, buf := captureLogger("json")

	lg.Error("no cause", nil)

	entry := decodeLine(t, buf)
	assert.NotContains(t, entry, "error")
	assert.NotContains(t, entry, "stack")
}

func TestFieldLoggerPrependsFields(t *testing.T) {
	lg, buf := captureLogger("text")

	fl := lg.WithFields(String("global", "value"), Int("count", 10))
	fl.Info("field message", String("local", "data"))

	out := buf.String()
	assert.Contains(t, out, "field message")
	assert.Contains(t, out, "global=value")
	assert.Contains(t, out, "count=10")
	assert.Contains(t, out, "local=data")
}

func TestFieldLoggerDoesNotLeakBetweenCalls(t *testing.T) {
	lg, buf := captureLogger("text")

	fl := lg.WithFields(String("fixed", "yes"))
	fl.Info("first", String("a", "1"))
	fl.Info("second", String("b", "2"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[1], "a=1", "fields from the first call must not reappear")
	assert.Contains(t, lines[1], "b=2")
}

func TestLoggerConcurrentWrites(t *testing.T) {
	lg, buf := captureLogger("text")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				lg.Info("message", Int("goroutine", id), Int("iteration", j))
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20, "every line should arrive whole")
	for _, line := range lines {
		assert.Contains(t, line, "message")
	}
}

func TestInitLogger(t *testing.T) {
	InitLogger("warn", "json")

	lg := GetLogger()
	require.NotNil(t, lg)

	var buf bytes.Buffer
	lg.SetOutput(&buf)
	defer func() {
		lg.SetOutput(os.Stdout)
		lg.SetLevel(INFO)
		lg.SetFormat("text")
	}()

	lg.Info("filtered out")
	lg.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered out")
	assert.Contains(t, out, "kept")
}

func TestGetLoggerSingleton(t *testing.T) {
	assert.Same(t, GetLogger(), GetLogger())
}
