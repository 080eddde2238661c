package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("visible", "records", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if entry["msg"] != "visible" || entry["service"] != "sales-dashboard" || entry["records"] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Error("empty context should carry no ids")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID() = %q", GetRequestID(ctx))
	}
	if GetSessionID(ctx) != "sess-1" {
		t.Errorf("GetSessionID() = %q", GetSessionID(ctx))
	}
}

func TestSpan_ParentAndLog(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "debug", Format: "text"})

	ctx, parent := StartSpan(context.Background(), "GET /")
	_, child := StartSpan(ctx, "aggregate")

	if child.TraceID != parent.TraceID {
		t.Error("child should share the parent's trace id")
	}
	if child.ParentID != parent.SpanID {
		t.Error("child should point at the parent span")
	}

	child.SetTag("rows", "12")
	child.SetError(errors.New("boom"))
	child.Finish(logger)

	out := buf.String()
	for _, want := range []string{"span finished", "span.operation=aggregate", "span.status=ERROR", "span.rows=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
