package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestLogger(&buf), "pipeline")

	logger.Info("job complete", String(FieldRemoteKey, "mtime:123"))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline: job complete") {
		t.Fatalf("unexpected output: %q", line)
	}
	if !strings.Contains(line, "remote_key=mtime:123") {
		t.Errorf("missing attribute: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Warn("match rejected", String("title", "The Matrix"), Float64(FieldScore, 0.42))

	line := buf.String()
	if !strings.Contains(line, `title="The Matrix"`) {
		t.Errorf("value with space should be quoted: %q", line)
	}
	if !strings.Contains(line, "score=0.42") {
		t.Errorf("missing score attribute: %q", line)
	}
}

func TestErrorAttrHandlesNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Error("fetch failed", Error(errors.New("boom")))
	logger.Error("fetch failed", Error(nil))

	out := buf.String()
	if !strings.Contains(out, "error=boom") {
		t.Errorf("missing error value: %q", out)
	}
	if !strings.Contains(out, "error=<nil>") {
		t.Errorf("nil error should render as <nil>: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Errorf("unknown level should default to info, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Errorf("got %v", got)
	}
}
