package nodegl

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogDebug},
		{"VERBOSE", LogVerbose},
		{"Info", LogInfo},
		{"warning", LogWarning},
		{"error", LogError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	_, err := ParseLogLevel("loud")
	assertErrorIs(t, "ParseLogLevel(loud)", err, ErrInvalidArgument)
}

func TestLogLevelString(t *testing.T) {
	if LogWarning.String() != "WARNING" {
		t.Errorf("String = %q, want WARNING", LogWarning.String())
	}
	if got := LogLevel(42).String(); got != "LogLevel(42)" {
		t.Errorf("String = %q, want LogLevel(42)", got)
	}
}

func TestLogFuncReceivesModuleAndLevel(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	*lines = nil
	g := mustNode(t, ClassGroup)
	g.SetName("world")
	ctx.SetScene(g)
	g.logf(LogWarning, "hello %d", 7)

	if len(*lines) == 0 {
		t.Fatal("no log line captured")
	}
	last := (*lines)[len(*lines)-1]
	if last.level != LogWarning || last.module != "Group" || last.message != "world: hello 7" {
		t.Errorf("line = %+v, want WARNING Group \"world: hello 7\"", last)
	}
}

func TestLogLevelFilters(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	ctx.SetLogLevel(LogWarning)
	*lines = nil
	ctx.logf(LogInfo, "hidden")
	ctx.logf(LogVerbose, "hidden")
	ctx.logf(LogError, "shown")
	if len(*lines) != 1 || (*lines)[0].message != "shown" {
		t.Errorf("lines = %+v, want only the error", *lines)
	}
}

func TestLogLevelsStayDistinct(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	*lines = nil
	for l := LogDebug; l <= LogError; l++ {
		ctx.logf(l, "%s", l)
	}
	if len(*lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(*lines))
	}
	for i, l := range *lines {
		if l.level != LogLevel(i) {
			t.Errorf("line %d level = %v, want %v", i, l.level, LogLevel(i))
		}
	}
}

func TestLogWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogWriter = &buf
	ctx := NewContext(&cfg)
	buf.Reset()
	ctx.logf(LogError, "device lost")
	out := buf.String()
	if !strings.HasPrefix(out, "[ERROR] nodegl @ ") || !strings.Contains(out, "device lost") {
		t.Errorf("output = %q, want formatted ERROR line", out)
	}
	if !strings.Contains(out, "log_test.go:") || !strings.Contains(out, "TestLogWriterFormat") {
		t.Errorf("output = %q, want the calling file and function", out)
	}
}

func TestLogWriterLevelNames(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogWriter = &buf
	cfg.LogLevel = LogDebug
	ctx := NewContext(&cfg)
	for _, level := range []LogLevel{LogDebug, LogVerbose, LogInfo, LogWarning, LogError} {
		buf.Reset()
		ctx.logf(level, "message")
		want := "[" + level.String() + "] "
		if out := buf.String(); !strings.HasPrefix(out, want) {
			t.Errorf("%v: output = %q, want prefix %q", level, out, want)
		}
	}
}

func TestNodeLogReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogWriter = &buf
	ctx := NewContext(&cfg)
	g := mustNode(t, ClassGroup)
	if err := ctx.SetScene(g); err != nil {
		t.Fatal(err)
	}
	g.Unref()
	buf.Reset()
	g.logf(LogWarning, "hello")
	out := buf.String()
	if !strings.HasPrefix(out, "[WARNING] Group @ log_test.go:") {
		t.Errorf("output = %q, want the calling file", out)
	}
}

func TestSetLogFuncNilRestoresWriter(t *testing.T) {
	ctx, _, lines := newTestContext(t)
	ctx.SetLogFunc(nil)
	*lines = nil
	ctx.SetLogLevel(LogError)
	ctx.logf(LogWarning, "to stderr, filtered")
	if len(*lines) != 0 {
		t.Errorf("callback still receiving lines: %+v", *lines)
	}
}
