package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := &Logger{
		areaEnabled:   make(map[LogArea]*int32),
		logPath:       filepath.Join(t.TempDir(), "test.log"),
		maxSizeMB:     10,
		rotationCount: 2,
		enabled:       1,
		level:         int32(INFO),
	}
	for _, area := range allAreas {
		l.areaEnabled[area] = new(int32)
	}
	if err := l.openLogFile(); err != nil {
		t.Fatalf("openLogFile failed: %v", err)
	}
	t.Cleanup(func() { l.file.Close() })
	return l
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestShouldLogRespectsAreaAndLevel(t *testing.T) {
	l := newTestLogger(t)

	if l.shouldLog(INFO, AreaHistory) {
		t.Error("disabled area should not log INFO")
	}
	if !l.shouldLog(WARN, AreaHistory) {
		t.Error("WARN should be logged regardless of area")
	}
	if l.shouldLog(DEBUG, AreaHistory) {
		t.Error("DEBUG is below the configured level")
	}

	*l.areaEnabled[AreaHistory] = 1
	if !l.shouldLog(INFO, AreaHistory) {
		t.Error("enabled area should log INFO")
	}

	l.enabled = 0
	if l.shouldLog(ERROR, AreaHistory) {
		t.Error("disabled logger should not log at all")
	}
}

func TestWriteLogAppendsEntry(t *testing.T) {
	l := newTestLogger(t)
	l.writeLog(WARN, AreaCalculator, "divide by %d", 0)

	data, err := os.ReadFile(l.logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[CALCULATOR] divide by 0") {
		t.Errorf("unexpected log line: %q", line)
	}
	if !strings.Contains(line, "WARN") {
		t.Errorf("log line should carry the level: %q", line)
	}
}

func TestRotateLockedMovesFile(t *testing.T) {
	l := newTestLogger(t)
	l.writeLog(ERROR, AreaGeneral, "before rotation")

	l.mutex.Lock()
	err := l.rotateLocked()
	l.mutex.Unlock()
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	if _, err := os.Stat(l.logPath + ".1"); err != nil {
		t.Errorf("rotated file missing: %v", err)
	}
	if l.currentSize != 0 {
		t.Errorf("size should reset after rotation, got %d", l.currentSize)
	}
}
